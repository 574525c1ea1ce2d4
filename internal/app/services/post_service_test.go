package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/filestorage"
	"github.com/parivartan/hub/internal/pkg/genai"
)

func seededPosts(posts ...models.Post) store.Sources {
	return store.Sources{Posts: func(context.Context) ([]models.Post, error) { return posts, nil }}
}

func TestCreatePostAwardsFirstPost(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	repo := &memoryPosts{}
	svc := NewPostService(repo, newDeps(notifier))
	sess := openSession(t, member, store.Sources{})

	post, err := svc.CreatePost(ctx, sess, "  Teaching drive this Sunday  ", "")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.Content != "Teaching drive this Sunday" || post.UserID != member.ID {
		t.Fatalf("unexpected post %+v", post)
	}
	if _, ok := sess.Store.Post(post.ID); !ok {
		t.Fatal("store not patched with the new post")
	}
	if !sess.Store.HasBadge(member.ID, models.BadgeFirstPost) {
		t.Fatal("first-post not awarded")
	}
	if got := notifier.ofKind(models.NotifyBadge); len(got) != 1 || got[0].recipients[0] != member.ID {
		t.Fatalf("badge notifications = %+v", got)
	}

	if _, err := svc.CreatePost(ctx, sess, "second", ""); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if got := notifier.ofKind(models.NotifyBadge); len(got) != 1 {
		t.Fatalf("first-post awarded twice: %+v", got)
	}
}

func TestCreatePostRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("viewer", func(t *testing.T) {
		repo := &memoryPosts{}
		svc := NewPostService(repo, newDeps(&recordingNotifier{}))
		_, err := svc.CreatePost(ctx, openSession(t, viewer, store.Sources{}), "hello", "")
		requireKind(t, err, apperrors.ErrPermissionDenied)
		if repo.calls != 0 {
			t.Fatal("repository called for a forbidden post")
		}
	})

	t.Run("blank", func(t *testing.T) {
		repo := &memoryPosts{}
		svc := NewPostService(repo, newDeps(&recordingNotifier{}))
		_, err := svc.CreatePost(ctx, openSession(t, member, store.Sources{}), " \n\t ", "")
		requireKind(t, err, apperrors.ErrValidationFailed)
		if repo.calls != 0 {
			t.Fatal("repository called for blank content")
		}
	})

	t.Run("unsafe", func(t *testing.T) {
		repo := &memoryPosts{}
		deps := newDeps(&recordingNotifier{})
		deps.Moderator = fixedModerator(genai.Unsafe)
		svc := NewPostService(repo, deps)
		_, err := svc.CreatePost(ctx, openSession(t, member, store.Sources{}), "something rude", "")
		requireKind(t, err, apperrors.ErrContentRejected)
		if repo.calls != 0 {
			t.Fatal("rejected post was stored")
		}
	})
}

func TestModerationFailsOpen(t *testing.T) {
	deps := newDeps(&recordingNotifier{})
	deps.Moderator = fixedModerator(genai.CheckFailed)
	svc := NewPostService(&memoryPosts{}, deps)
	sess := openSession(t, member, seededPosts(models.Post{ID: "p1", UserID: other.ID, Content: "hi", CreatedAt: time.Now()}))

	if _, err := svc.CreatePost(context.Background(), sess, "hello", ""); err != nil {
		t.Fatalf("post blocked by a failed check: %v", err)
	}
	if _, err := svc.AddComment(context.Background(), sess, "p1", "nice"); err != nil {
		t.Fatalf("comment blocked by a failed check: %v", err)
	}
}

func TestBackendFailureLeavesStoreUntouched(t *testing.T) {
	repo := &memoryPosts{fail: errDown}
	svc := NewPostService(repo, newDeps(&recordingNotifier{}))
	sess := openSession(t, member, store.Sources{})

	_, err := svc.CreatePost(context.Background(), sess, "hello", "")
	requireKind(t, err, apperrors.ErrBackend)
	if n := len(sess.Store.Snapshot().Posts); n != 0 {
		t.Fatalf("store has %d posts after a failed create", n)
	}
	if repo.calls != 1 {
		t.Fatalf("repository called %d times, want exactly 1 (no retry)", repo.calls)
	}
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	theirs := models.Post{ID: "p1", UserID: other.ID, Content: "hi", CreatedAt: time.Now()}

	t.Run("not confirmed", func(t *testing.T) {
		repo := &memoryPosts{}
		svc := NewPostService(repo, newDeps(&recordingNotifier{}))
		sess := openSession(t, admin, seededPosts(theirs))
		err := svc.DeletePost(ctx, sess, "p1", Confirmed(false))
		requireKind(t, err, apperrors.ErrNotConfirmed)
		if repo.calls != 0 {
			t.Fatal("repository called without confirmation")
		}
		if _, ok := sess.Store.Post("p1"); !ok {
			t.Fatal("post removed without confirmation")
		}
	})

	t.Run("member cannot delete others", func(t *testing.T) {
		svc := NewPostService(&memoryPosts{}, newDeps(&recordingNotifier{}))
		err := svc.DeletePost(ctx, openSession(t, member, seededPosts(theirs)), "p1", Confirmed(true))
		requireKind(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("admin deletes", func(t *testing.T) {
		repo := &memoryPosts{}
		svc := NewPostService(repo, newDeps(&recordingNotifier{}))
		sess := openSession(t, admin, seededPosts(theirs))
		if err := svc.DeletePost(ctx, sess, "p1", Confirmed(true)); err != nil {
			t.Fatalf("DeletePost: %v", err)
		}
		if _, ok := sess.Store.Post("p1"); ok {
			t.Fatal("post still in store")
		}
	})

	t.Run("author deletes own", func(t *testing.T) {
		svc := NewPostService(&memoryPosts{}, newDeps(&recordingNotifier{}))
		if err := svc.DeletePost(ctx, openSession(t, other, seededPosts(theirs)), "p1", Confirmed(true)); err != nil {
			t.Fatalf("DeletePost: %v", err)
		}
	})
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDeletePostKeepsUploadsItDidNotMake(t *testing.T) {
	ctx := context.Background()
	images, err := filestorage.NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	achievementImage, err := images.SaveImage(ctx, pngImage(t), "achievements")
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}

	deps := newDeps(&recordingNotifier{})
	deps.Images = images
	svc := NewPostService(&memoryPosts{}, deps)
	sess := openSession(t, other, store.Sources{})

	post, err := svc.CreatePost(ctx, sess, "hi", achievementImage)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.ImageURL == nil || *post.ImageURL == achievementImage {
		t.Fatalf("post must own its image, got %v", post.ImageURL)
	}
	postImage := images.GetFullPath(*post.ImageURL)

	if err := svc.DeletePost(ctx, sess, post.ID, Confirmed(true)); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := os.Stat(images.GetFullPath(achievementImage)); err != nil {
		t.Fatalf("deleting a post removed another record's upload: %v", err)
	}
	if _, err := os.Stat(postImage); !os.IsNotExist(err) {
		t.Fatalf("the post's own image was not cleaned up: %v", err)
	}
}

func TestReactToggles(t *testing.T) {
	ctx := context.Background()
	repo := &memoryPosts{}
	svc := NewPostService(repo, newDeps(&recordingNotifier{}))
	sess := openSession(t, member, seededPosts(models.Post{ID: "p1", UserID: other.ID, Content: "hi", CreatedAt: time.Now()}))

	r, err := svc.React(ctx, sess, "p1", models.ReactionLike)
	if err != nil || r == nil {
		t.Fatalf("React: %v %v", r, err)
	}
	if _, err := svc.React(ctx, sess, "p1", models.ReactionLove); err != nil {
		t.Fatalf("React: %v", err)
	}
	got, ok := sess.Store.ReactionBy("p1", member.ID)
	if !ok || got.Type != models.ReactionLove {
		t.Fatalf("reaction not replaced: %+v", got)
	}
	if n := len(sess.Store.Snapshot().Reactions); n != 1 {
		t.Fatalf("%d reactions for one (post, user)", n)
	}

	removed, err := svc.React(ctx, sess, "p1", models.ReactionLove)
	if err != nil || removed != nil {
		t.Fatalf("same type should remove: %v %v", removed, err)
	}
	if _, ok := sess.Store.ReactionBy("p1", member.ID); ok {
		t.Fatal("reaction still present after toggle")
	}

	_, err = svc.React(ctx, sess, "p1", models.ReactionType("meh"))
	requireKind(t, err, apperrors.ErrValidationFailed)
}
