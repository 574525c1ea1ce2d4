package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/pkg/apperrors"
)

type memoryTasks struct {
	seq  seq
	rows map[string]models.Task
}

func (r *memoryTasks) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	saved := *t
	saved.ID = r.seq.next("task")
	if r.rows == nil {
		r.rows = make(map[string]models.Task)
	}
	r.rows[saved.ID] = saved
	return &saved, nil
}

func (r *memoryTasks) Update(ctx context.Context, t *models.Task) (*models.Task, error) {
	saved := *t
	return &saved, nil
}

func (r *memoryTasks) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	t, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("task not found")
	}
	t.Status = status
	r.rows[id] = t
	return &t, nil
}

func (r *memoryTasks) Delete(ctx context.Context, id string) error {
	delete(r.rows, id)
	return nil
}

func TestCreateTaskNotifiesAssignee(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewTaskService(&memoryTasks{}, newDeps(notifier))
	sess := openSession(t, member, store.Sources{})
	due := time.Now().Add(48 * time.Hour)

	if _, err := svc.CreateTask(ctx, sess, TaskInput{Title: "Mine", DueDate: due, AssigneeID: member.ID}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got := notifier.ofKind(models.NotifyTaskAssigned); len(got) != 0 {
		t.Fatalf("self assignment notified: %+v", got)
	}

	task, err := svc.CreateTask(ctx, sess, TaskInput{Title: "Book hall", DueDate: due, AssigneeID: other.ID})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != models.TaskTodo {
		t.Fatalf("status = %s, want todo", task.Status)
	}
	got := notifier.ofKind(models.NotifyTaskAssigned)
	if len(got) != 1 || got[0].recipients[0] != other.ID {
		t.Fatalf("assignee not notified: %+v", got)
	}

	_, err = svc.CreateTask(ctx, sess, TaskInput{Title: "Ghost", DueDate: due, AssigneeID: "nobody"})
	requireKind(t, err, apperrors.ErrValidationFailed)
}

func TestMoveTaskAwardsTaskMaster(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	repo := &memoryTasks{rows: make(map[string]models.Task)}
	assignee := member.ID
	var seeded []models.Task
	for i := 0; i < 10; i++ {
		status := models.TaskDone
		if i == 9 {
			status = models.TaskInProgress
		}
		task := models.Task{
			ID:         fmt.Sprintf("t%d", i),
			Title:      "Task",
			DueDate:    time.Now().Add(time.Duration(i+1) * time.Hour),
			AssigneeID: &assignee,
			CreatedBy:  admin.ID,
			Status:     status,
		}
		repo.rows[task.ID] = task
		seeded = append(seeded, task)
	}
	sess := openSession(t, member, store.Sources{Tasks: func(context.Context) ([]models.Task, error) { return seeded, nil }})
	svc := NewTaskService(repo, newDeps(notifier))

	_, err := svc.MoveTask(ctx, sess, "t9", "bogus")
	requireKind(t, err, apperrors.ErrValidationFailed)

	moved, err := svc.MoveTask(ctx, sess, "t9", "DONE")
	if err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	if moved.Status != models.TaskDone {
		t.Fatalf("status = %s", moved.Status)
	}
	if !sess.Store.HasBadge(member.ID, models.BadgeTaskMaster) {
		t.Fatal("task-master not awarded at the tenth done task")
	}
}

func TestTaskAdminOnlyOperations(t *testing.T) {
	ctx := context.Background()
	seeded := []models.Task{{ID: "t1", Title: "Print", DueDate: time.Now().Add(time.Hour), CreatedBy: member.ID, Status: models.TaskTodo}}
	src := store.Sources{Tasks: func(context.Context) ([]models.Task, error) { return seeded, nil }}
	svc := NewTaskService(&memoryTasks{}, newDeps(&recordingNotifier{}))

	sess := openSession(t, member, src)
	_, err := svc.UpdateTask(ctx, sess, "t1", TaskInput{Title: "Print more", DueDate: time.Now()})
	requireKind(t, err, apperrors.ErrPermissionDenied)
	requireKind(t, svc.DeleteTask(ctx, sess, "t1", Confirmed(true)), apperrors.ErrPermissionDenied)

	adminSess := openSession(t, admin, src)
	updated, err := svc.UpdateTask(ctx, adminSess, "t1", TaskInput{Title: "Print more", DueDate: time.Now()})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Status != models.TaskTodo || updated.CreatedBy != member.ID {
		t.Fatalf("update lost fields: %+v", updated)
	}
	if err := svc.DeleteTask(ctx, adminSess, "t1", Confirmed(true)); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, ok := adminSess.Store.Task("t1"); ok {
		t.Fatal("task still in store")
	}
}

type memoryEvents struct {
	seq       seq
	attendees map[string]bool
	deleted   []string
}

func (r *memoryEvents) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	saved := *e
	saved.ID = r.seq.next("event")
	return &saved, nil
}

func (r *memoryEvents) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memoryEvents) AddAttendee(ctx context.Context, eventID, userID string) (*models.EventAttendee, error) {
	if r.attendees == nil {
		r.attendees = make(map[string]bool)
	}
	key := eventID + "/" + userID
	if r.attendees[key] {
		return nil, apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "already attended")
	}
	r.attendees[key] = true
	return &models.EventAttendee{ID: r.seq.next("att"), EventID: eventID, UserID: userID}, nil
}

func TestCreateEventBroadcastsAndAwards(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewEventService(&memoryEvents{}, newDeps(notifier))
	sess := openSession(t, admin, store.Sources{})

	_, err := svc.CreateEvent(context.Background(), sess, EventInput{
		Title:       "Book fair",
		Description: "Collecting books",
		Date:        time.Date(2030, 3, 9, 0, 0, 0, 0, time.UTC),
		Location:    "Main hall",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if !sess.Store.HasBadge(admin.ID, models.BadgeEventCreator) {
		t.Fatal("event-creator not awarded")
	}
	got := notifier.ofKind(models.NotifyEvent)
	if len(got) != 1 {
		t.Fatalf("event broadcasts = %+v", got)
	}
	if got[0].message != "New event: Book fair on Mar 9, 2030" {
		t.Fatalf("message = %q", got[0].message)
	}
	for _, id := range got[0].recipients {
		if id == admin.ID {
			t.Fatal("broadcast reached the actor")
		}
	}
	if len(got[0].recipients) != len(everyone())-1 {
		t.Fatalf("recipients = %v", got[0].recipients)
	}

	_, err = svc.CreateEvent(context.Background(), openSession(t, member, store.Sources{}), EventInput{Title: "x", Description: "y", Date: time.Now()})
	requireKind(t, err, apperrors.ErrPermissionDenied)
}

func TestMarkAttendance(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	events := []models.Event{
		{ID: "past", Title: "Past", Date: now.Add(-48 * time.Hour), CreatedBy: admin.ID},
		{ID: "future", Title: "Future", Date: now.Add(48 * time.Hour), CreatedBy: admin.ID},
	}
	sess := openSession(t, member, store.Sources{Events: func(context.Context) ([]models.Event, error) { return events, nil }})
	svc := NewEventService(&memoryEvents{}, newDeps(&recordingNotifier{}))

	_, err := svc.MarkAttendance(ctx, sess, "future")
	requireKind(t, err, apperrors.ErrValidationFailed)

	if _, err := svc.MarkAttendance(ctx, sess, "past"); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}
	if !sess.Store.Attended("past", member.ID) {
		t.Fatal("attendance not in store")
	}
	_, err = svc.MarkAttendance(ctx, sess, "past")
	requireKind(t, err, apperrors.ErrResourceAlreadyExists)
}

func TestDeleteEventAuthorOrAdmin(t *testing.T) {
	ctx := context.Background()
	events := []models.Event{
		{ID: "e1", Title: "Book fair", Date: time.Now().Add(48 * time.Hour), CreatedBy: admin.ID},
	}
	src := func() store.Sources {
		return store.Sources{Events: func(context.Context) ([]models.Event, error) { return events, nil }}
	}

	t.Run("stranger", func(t *testing.T) {
		repo := &memoryEvents{}
		svc := NewEventService(repo, newDeps(&recordingNotifier{}))
		err := svc.DeleteEvent(ctx, openSession(t, member, src()), "e1", Confirmed(true))
		requireKind(t, err, apperrors.ErrPermissionDenied)
		if len(repo.deleted) != 0 {
			t.Fatal("forbidden delete reached the repository")
		}
	})

	t.Run("author needs confirmation", func(t *testing.T) {
		repo := &memoryEvents{}
		svc := NewEventService(repo, newDeps(&recordingNotifier{}))
		sess := openSession(t, admin, src())

		requireKind(t, svc.DeleteEvent(ctx, sess, "e1", nil), apperrors.ErrNotConfirmed)
		requireKind(t, svc.DeleteEvent(ctx, sess, "e1", Confirmed(false)), apperrors.ErrNotConfirmed)
		if _, ok := sess.Store.Event("e1"); !ok || len(repo.deleted) != 0 {
			t.Fatal("unconfirmed delete changed state")
		}
		if err := svc.DeleteEvent(ctx, sess, "e1", Confirmed(true)); err != nil {
			t.Fatalf("DeleteEvent: %v", err)
		}
		if _, ok := sess.Store.Event("e1"); ok {
			t.Fatal("event still in store")
		}
	})

	t.Run("super admin deletes any", func(t *testing.T) {
		repo := &memoryEvents{}
		svc := NewEventService(repo, newDeps(&recordingNotifier{}))
		if err := svc.DeleteEvent(ctx, openSession(t, super, src()), "e1", Confirmed(true)); err != nil {
			t.Fatalf("DeleteEvent: %v", err)
		}
		if len(repo.deleted) != 1 || repo.deleted[0] != "e1" {
			t.Fatalf("deleted = %v", repo.deleted)
		}
	})

	t.Run("missing", func(t *testing.T) {
		svc := NewEventService(&memoryEvents{}, newDeps(&recordingNotifier{}))
		requireKind(t, svc.DeleteEvent(ctx, openSession(t, admin, src()), "nope", Confirmed(true)), apperrors.ErrResourceNotFound)
	})
}

type memoryCampaigns struct {
	seq    seq
	raised map[string]float64
}

func (r *memoryCampaigns) Create(ctx context.Context, c *models.Campaign) (*models.Campaign, error) {
	saved := *c
	saved.ID = r.seq.next("campaign")
	return &saved, nil
}

func (r *memoryCampaigns) Donate(ctx context.Context, d *models.Donor) (*models.Campaign, *models.Donor, error) {
	r.raised[d.CampaignID] += d.Amount
	saved := *d
	saved.ID = r.seq.next("donor")
	return &models.Campaign{ID: d.CampaignID, Title: "Books", Goal: 1000, Raised: r.raised[d.CampaignID]}, &saved, nil
}

func TestDonate(t *testing.T) {
	ctx := context.Background()
	campaigns := []models.Campaign{{ID: "c1", Title: "Books", Goal: 1000, Raised: 100}}
	sess := openSession(t, member, store.Sources{Campaigns: func(context.Context) ([]models.Campaign, error) { return campaigns, nil }})
	repo := &memoryCampaigns{raised: map[string]float64{"c1": 100}}
	svc := NewCampaignService(repo, newDeps(&recordingNotifier{}))

	for _, amount := range []float64{0, -5} {
		_, _, err := svc.Donate(ctx, sess, "c1", DonationInput{Amount: amount})
		requireKind(t, err, apperrors.ErrValidationFailed)
	}

	c, d, err := svc.Donate(ctx, sess, "c1", DonationInput{Amount: 250, Name: "Asha K", Anonymous: true})
	if err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if d.Name != nil {
		t.Fatalf("anonymous donor stored with name %q", *d.Name)
	}
	if c.Raised != 350 {
		t.Fatalf("raised = %v", c.Raised)
	}

	_, d, err = svc.Donate(ctx, sess, "c1", DonationInput{Amount: 50})
	if err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if d.Name == nil || *d.Name != member.Name {
		t.Fatalf("named donor = %v", d.Name)
	}

	snap := sess.Store.Snapshot()
	if snap.Campaigns[0].Raised != 400 || len(snap.Donors) != 2 {
		t.Fatalf("store not patched: %+v %+v", snap.Campaigns, snap.Donors)
	}

	_, err = svc.CreateCampaign(ctx, openSession(t, admin, store.Sources{}), CampaignInput{Title: "x", Description: "y", Goal: 0})
	requireKind(t, err, apperrors.ErrValidationFailed)
}

type memoryHomepage struct {
	seq seq
}

func (r *memoryHomepage) CreateSlide(ctx context.Context, s *models.SlideshowItem) (*models.SlideshowItem, error) {
	saved := *s
	saved.ID = r.seq.next("slide")
	return &saved, nil
}

func (r *memoryHomepage) DeleteSlide(ctx context.Context, id string) error { return nil }

func (r *memoryHomepage) ReplacePopup(ctx context.Context, p *models.PopupMessage) (*models.PopupMessage, error) {
	saved := *p
	saved.ID = r.seq.next("popup")
	return &saved, nil
}

func (r *memoryHomepage) DeletePopup(ctx context.Context, id string) error { return nil }

func TestPopupReplacement(t *testing.T) {
	ctx := context.Background()
	svc := NewHomepageService(&memoryHomepage{}, newDeps(&recordingNotifier{}))
	sess := openSession(t, admin, store.Sources{})

	if _, err := svc.SetPopup(ctx, sess, "Welcome", "Hello volunteers", ""); err != nil {
		t.Fatalf("SetPopup: %v", err)
	}
	second, err := svc.SetPopup(ctx, sess, "Drive", "Book drive on Sunday", "https://cdn.example.org/p.png")
	if err != nil {
		t.Fatalf("SetPopup: %v", err)
	}
	p := sess.Store.Popup()
	if p == nil || p.ID != second.ID || p.Title != "Drive" {
		t.Fatalf("popup = %+v", p)
	}

	requireKind(t, svc.DeletePopup(ctx, sess, Confirmed(false)), apperrors.ErrNotConfirmed)
	if err := svc.DeletePopup(ctx, sess, Confirmed(true)); err != nil {
		t.Fatalf("DeletePopup: %v", err)
	}
	if sess.Store.Popup() != nil {
		t.Fatal("popup still set")
	}

	_, err = svc.AddSlide(ctx, sess, "", "caption", "")
	requireKind(t, err, apperrors.ErrValidationFailed)
}

type memoryMembers struct {
	seq       seq
	cascaded  []string
	roles     map[string]models.Role
	createErr error
}

func (r *memoryMembers) Create(ctx context.Context, u *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	u.ID = r.seq.next("user")
	return nil
}

func (r *memoryMembers) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	u := models.User{ID: id}
	for _, x := range everyone() {
		if x.ID == id {
			u = x
		}
	}
	patch.Apply(&u)
	return &u, nil
}

func (r *memoryMembers) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if r.roles == nil {
		r.roles = make(map[string]models.Role)
	}
	r.roles[id] = role
	for _, x := range everyone() {
		if x.ID == id {
			x.Role = role
			return &x, nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("user not found")
}

func (r *memoryMembers) DeleteCascade(ctx context.Context, id string) error {
	r.cascaded = append(r.cascaded, id)
	return nil
}

type recordingTerminator struct{ ended []string }

func (r *recordingTerminator) End(userID, reason string) { r.ended = append(r.ended, userID) }

type recordingListener struct{ updated []string }

func (r *recordingListener) NotifyProfileUpdated(u *models.User) { r.updated = append(r.updated, u.ID) }

func newMemberService(repo *memoryMembers, listener ProfileListener, term SessionTerminator) MemberService {
	svc := NewMemberService(repo, listener, term, newDeps(&recordingNotifier{})).(*memberServiceImpl)
	svc.hash = func(p string) (string, error) { return "hash:" + p, nil }
	return svc
}

func TestRemoveMemberCascades(t *testing.T) {
	ctx := context.Background()
	src := store.Sources{
		Posts: func(context.Context) ([]models.Post, error) {
			return []models.Post{{ID: "p1", UserID: other.ID}, {ID: "p2", UserID: member.ID}}, nil
		},
		Comments: func(context.Context) ([]models.Comment, error) {
			return []models.Comment{{ID: "c1", PostID: "p2", UserID: other.ID}, {ID: "c2", PostID: "p1", UserID: member.ID}}, nil
		},
		Tasks: func(context.Context) ([]models.Task, error) {
			return []models.Task{{ID: "t1", CreatedBy: admin.ID, AssigneeID: &other.ID}, {ID: "t2", CreatedBy: admin.ID}}, nil
		},
	}
	repo := &memoryMembers{}
	term := &recordingTerminator{}
	svc := newMemberService(repo, nil, term)

	requireKind(t, svc.RemoveMember(ctx, openSession(t, member, src), other.ID, Confirmed(true)), apperrors.ErrPermissionDenied)

	sess := openSession(t, admin, src)
	requireKind(t, svc.RemoveMember(ctx, sess, other.ID, Confirmed(false)), apperrors.ErrNotConfirmed)
	requireKind(t, svc.RemoveMember(ctx, sess, admin.ID, Confirmed(true)), apperrors.ErrPermissionDenied)
	requireKind(t, svc.RemoveMember(ctx, sess, super.ID, Confirmed(true)), apperrors.ErrPermissionDenied)
	if len(repo.cascaded) != 0 {
		t.Fatalf("cascade ran for a rejected removal: %v", repo.cascaded)
	}

	if err := svc.RemoveMember(ctx, sess, other.ID, Confirmed(true)); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	snap := sess.Store.Snapshot()
	if _, ok := sess.Store.User(other.ID); ok {
		t.Fatal("user still in store")
	}
	if len(snap.Posts) != 1 || snap.Posts[0].ID != "p2" {
		t.Fatalf("posts = %+v", snap.Posts)
	}
	if len(snap.Comments) != 0 {
		t.Fatalf("comments = %+v", snap.Comments)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "t2" {
		t.Fatalf("tasks = %+v", snap.Tasks)
	}
	if len(term.ended) != 1 || term.ended[0] != other.ID {
		t.Fatalf("session not ended: %v", term.ended)
	}
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	repo := &memoryMembers{}
	listener := &recordingListener{}
	svc := newMemberService(repo, listener, nil)
	sess := openSession(t, admin, store.Sources{})

	_, err := svc.ChangeRole(ctx, sess, member.ID, "super_admin")
	requireKind(t, err, apperrors.ErrPermissionDenied)
	_, err = svc.ChangeRole(ctx, sess, super.ID, "member")
	requireKind(t, err, apperrors.ErrPermissionDenied)
	_, err = svc.ChangeRole(ctx, sess, admin.ID, "member")
	requireKind(t, err, apperrors.ErrPermissionDenied)
	_, err = svc.ChangeRole(ctx, sess, member.ID, "owner")
	requireKind(t, err, apperrors.ErrValidationFailed)

	u, err := svc.ChangeRole(ctx, sess, member.ID, "admin")
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Fatalf("role = %s", u.Role)
	}
	if stored, _ := sess.Store.User(member.ID); stored.Role != models.RoleAdmin {
		t.Fatal("store not patched")
	}
	if len(listener.updated) != 1 || listener.updated[0] != member.ID {
		t.Fatalf("target session not told: %v", listener.updated)
	}

	if _, err := svc.ChangeRole(ctx, openSession(t, super, store.Sources{}), member.ID, "super-admin"); err != nil {
		t.Fatalf("super admin promotion: %v", err)
	}
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	repo := &memoryMembers{}
	svc := newMemberService(repo, nil, nil)
	sess := openSession(t, admin, store.Sources{})

	u, err := svc.AddMember(ctx, sess, MemberInput{Name: "Nila", Handle: "Nila.R", Email: "nila@example.org"})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if u.Handle != "nila.r" || u.Role != models.RoleMember || !u.EmailConfirmed || u.Password == "" {
		t.Fatalf("unexpected member %+v", u)
	}
	if _, ok := sess.Store.User(u.ID); !ok {
		t.Fatal("member not in store")
	}

	_, err = svc.AddMember(ctx, sess, MemberInput{Name: "Big", Handle: "big", Role: "super_admin"})
	requireKind(t, err, apperrors.ErrPermissionDenied)

	repo.createErr = apperrors.ErrHandleTaken
	_, err = svc.AddMember(ctx, sess, MemberInput{Name: "Nila", Handle: "nila.r"})
	if !errors.Is(err, apperrors.ErrHandleTaken) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateProfileSelfOrAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newMemberService(&memoryMembers{}, &recordingListener{}, nil)
	name := "Asha Kumari"

	sess := openSession(t, member, store.Sources{})
	_, err := svc.UpdateProfile(ctx, sess, other.ID, models.ProfilePatch{Name: &name}, "")
	requireKind(t, err, apperrors.ErrPermissionDenied)

	u, err := svc.UpdateProfile(ctx, sess, member.ID, models.ProfilePatch{Name: &name}, "")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if sess.Actor().Name != name || u.Name != name {
		t.Fatalf("actor not refreshed: %+v", sess.Actor())
	}
}

type memoryChat struct {
	seq seq
}

func (r *memoryChat) Create(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	saved := *m
	saved.ID = r.seq.next("msg")
	saved.ReadBy = []string{m.UserID}
	saved.CreatedAt = time.Now()
	return &saved, nil
}

func (r *memoryChat) MarkRead(ctx context.Context, userID string, ids []string) ([]models.ChatMessage, error) {
	out := make([]models.ChatMessage, len(ids))
	for i, id := range ids {
		out[i] = models.ChatMessage{ID: id, UserID: other.ID, Content: "hi", ReadBy: []string{other.ID, userID}}
	}
	return out, nil
}

type recordingFeed struct{ published []models.ChatMessage }

func (f *recordingFeed) Publish(ctx context.Context, m models.ChatMessage) error {
	f.published = append(f.published, m)
	return nil
}

func TestChat(t *testing.T) {
	ctx := context.Background()
	feed := &recordingFeed{}
	svc := NewChatService(&memoryChat{}, feed, newDeps(&recordingNotifier{}))
	src := store.Sources{Chat: func(context.Context) ([]models.ChatMessage, error) {
		return []models.ChatMessage{
			{ID: "c1", UserID: other.ID, Content: "hi", ReadBy: []string{other.ID}},
			{ID: "c2", UserID: other.ID, Content: "there", ReadBy: []string{other.ID}},
		}, nil
	}}
	sess := openSession(t, member, src)

	_, err := svc.SendMessage(ctx, sess, "  ", "")
	requireKind(t, err, apperrors.ErrValidationFailed)

	msg, err := svc.SendMessage(ctx, sess, "hello", "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(feed.published) != 1 || feed.published[0].ID != msg.ID {
		t.Fatalf("not published: %+v", feed.published)
	}

	n, err := svc.MarkRead(ctx, sess)
	if err != nil || n != 2 {
		t.Fatalf("MarkRead = %d, %v", n, err)
	}
	if ids := sess.Store.UnreadChatIDs(member.ID); len(ids) != 0 {
		t.Fatalf("still unread: %v", ids)
	}

	_, err = svc.SendMessage(ctx, openSession(t, viewer, src), "hi", "")
	requireKind(t, err, apperrors.ErrPermissionDenied)
}
