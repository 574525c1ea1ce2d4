package services

import (
	"context"
	"testing"
	"time"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/pkg/apperrors"
)

type memoryAnnouncements struct {
	seq     seq
	calls   int
	deleted []string
}

func (r *memoryAnnouncements) Create(ctx context.Context, a *models.Announcement) (*models.Announcement, error) {
	r.calls++
	saved := *a
	saved.ID = r.seq.next("ann")
	saved.CreatedAt = time.Now()
	return &saved, nil
}

func (r *memoryAnnouncements) Update(ctx context.Context, a *models.Announcement) (*models.Announcement, error) {
	r.calls++
	saved := *a
	return &saved, nil
}

func (r *memoryAnnouncements) Delete(ctx context.Context, id string) error {
	r.calls++
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memoryAnnouncements) CreateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	r.calls++
	saved := *a
	saved.ID = r.seq.next("ach")
	return &saved, nil
}

func (r *memoryAnnouncements) UpdateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	r.calls++
	saved := *a
	return &saved, nil
}

func (r *memoryAnnouncements) DeleteAchievement(ctx context.Context, id string) error {
	r.calls++
	r.deleted = append(r.deleted, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateAnnouncementBroadcasts(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	repo := &memoryAnnouncements{}
	svc := NewAnnouncementService(repo, newDeps(notifier))
	sess := openSession(t, admin, store.Sources{})

	a, err := svc.CreateAnnouncement(ctx, sess, AnnouncementInput{
		Title:   "  Winter drive  ",
		Content: "Bring warm clothes",
		Image:   "https://cdn.example.org/winter.jpg",
	})
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	if a.Title != "Winter drive" || a.AuthorID != admin.ID || a.ImageURL == nil || *a.ImageURL != "https://cdn.example.org/winter.jpg" {
		t.Fatalf("unexpected announcement %+v", a)
	}
	if _, ok := sess.Store.Announcement(a.ID); !ok {
		t.Fatal("store not patched")
	}

	got := notifier.ofKind(models.NotifyAnnouncement)
	if len(got) != 1 || got[0].message != "New announcement: Winter drive" {
		t.Fatalf("announcement broadcasts = %+v", got)
	}
	if len(got[0].recipients) != len(everyone())-1 {
		t.Fatalf("recipients = %v", got[0].recipients)
	}
	for _, id := range got[0].recipients {
		if id == admin.ID {
			t.Fatal("broadcast reached the author")
		}
	}
}

func TestAnnouncementRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("member", func(t *testing.T) {
		repo := &memoryAnnouncements{}
		notifier := &recordingNotifier{}
		svc := NewAnnouncementService(repo, newDeps(notifier))
		_, err := svc.CreateAnnouncement(ctx, openSession(t, member, store.Sources{}), AnnouncementInput{Title: "x", Content: "y"})
		requireKind(t, err, apperrors.ErrPermissionDenied)
		if repo.calls != 0 || len(notifier.ofKind(models.NotifyAnnouncement)) != 0 {
			t.Fatal("forbidden announcement had side effects")
		}
	})

	t.Run("blank title", func(t *testing.T) {
		repo := &memoryAnnouncements{}
		svc := NewAnnouncementService(repo, newDeps(&recordingNotifier{}))
		_, err := svc.CreateAnnouncement(ctx, openSession(t, admin, store.Sources{}), AnnouncementInput{Title: "  ", Content: "y"})
		requireKind(t, err, apperrors.ErrValidationFailed)
		if repo.calls != 0 {
			t.Fatal("repository called for invalid input")
		}
	})
}

func TestUpdateAndDeleteAnnouncement(t *testing.T) {
	ctx := context.Background()
	existing := models.Announcement{ID: "ann-1", Title: "Old", Content: "Old text", ImageURL: strPtr("https://cdn.example.org/old.jpg"), AuthorID: super.ID, CreatedAt: time.Now()}
	src := store.Sources{Announcements: func(context.Context) ([]models.Announcement, error) {
		return []models.Announcement{existing}, nil
	}}
	repo := &memoryAnnouncements{}
	svc := NewAnnouncementService(repo, newDeps(&recordingNotifier{}))
	sess := openSession(t, admin, src)

	updated, err := svc.UpdateAnnouncement(ctx, sess, "ann-1", AnnouncementInput{Title: "New", Content: "New text"})
	if err != nil {
		t.Fatalf("UpdateAnnouncement: %v", err)
	}
	if updated.Title != "New" || updated.AuthorID != super.ID {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.ImageURL == nil || *updated.ImageURL != "https://cdn.example.org/old.jpg" {
		t.Fatal("image dropped by an update without one")
	}
	if stored, _ := sess.Store.Announcement("ann-1"); stored.Title != "New" {
		t.Fatalf("store has %+v", stored)
	}

	_, err = svc.UpdateAnnouncement(ctx, sess, "ann-404", AnnouncementInput{Title: "x", Content: "y"})
	requireKind(t, err, apperrors.ErrResourceNotFound)

	requireKind(t, svc.DeleteAnnouncement(ctx, sess, "ann-1", Confirmed(false)), apperrors.ErrNotConfirmed)
	if len(repo.deleted) != 0 {
		t.Fatal("unconfirmed delete reached the repository")
	}
	if err := svc.DeleteAnnouncement(ctx, sess, "ann-1", Confirmed(true)); err != nil {
		t.Fatalf("DeleteAnnouncement: %v", err)
	}
	if _, ok := sess.Store.Announcement("ann-1"); ok {
		t.Fatal("announcement still in store")
	}
}

func TestAchievementImageRules(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC)
	existing := models.Achievement{ID: "ach-1", Title: "Award", Description: "State award", ImageURL: "https://cdn.example.org/award.jpg", Date: date, AuthorID: admin.ID}
	src := store.Sources{Achievements: func(context.Context) ([]models.Achievement, error) {
		return []models.Achievement{existing}, nil
	}}
	repo := &memoryAnnouncements{}
	svc := NewAnnouncementService(repo, newDeps(&recordingNotifier{}))
	sess := openSession(t, admin, src)

	_, err := svc.CreateAchievement(ctx, sess, AchievementInput{Title: "Drive", Description: "100 kits", Date: date})
	requireKind(t, err, apperrors.ErrValidationFailed)
	if repo.calls != 0 {
		t.Fatal("achievement without image reached the repository")
	}

	_, err = svc.CreateAchievement(ctx, sess, AchievementInput{Title: "Drive", Description: "100 kits", Image: "https://cdn.example.org/kits.jpg"})
	requireKind(t, err, apperrors.ErrValidationFailed)

	created, err := svc.CreateAchievement(ctx, sess, AchievementInput{Title: "Drive", Description: "100 kits", Image: "https://cdn.example.org/kits.jpg", Date: date})
	if err != nil {
		t.Fatalf("CreateAchievement: %v", err)
	}
	if _, ok := sess.Store.Achievement(created.ID); !ok {
		t.Fatal("store not patched")
	}

	updated, err := svc.UpdateAchievement(ctx, sess, "ach-1", AchievementInput{Title: "Award 2024", Description: "State award", Date: date})
	if err != nil {
		t.Fatalf("UpdateAchievement: %v", err)
	}
	if updated.ImageURL != existing.ImageURL || updated.AuthorID != admin.ID {
		t.Fatalf("update lost the existing image or author: %+v", updated)
	}

	_, err = svc.CreateAchievement(ctx, openSession(t, member, store.Sources{}), AchievementInput{Title: "x", Description: "y", Image: "https://cdn.example.org/x.jpg", Date: date})
	requireKind(t, err, apperrors.ErrPermissionDenied)

	requireKind(t, svc.DeleteAchievement(ctx, sess, "ach-1", nil), apperrors.ErrNotConfirmed)
	if err := svc.DeleteAchievement(ctx, sess, "ach-1", Confirmed(true)); err != nil {
		t.Fatalf("DeleteAchievement: %v", err)
	}
	if _, ok := sess.Store.Achievement("ach-1"); ok {
		t.Fatal("achievement still in store")
	}
}
