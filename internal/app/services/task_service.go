package services

import (
	"context"
	"strings"
	"time"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/badges"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// TaskRepository persists kanban tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) (*models.Task, error)
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskInput is the task form. An empty Status means todo.
type TaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	AssigneeID  string
	Status      string
}

// TaskService manages the kanban board.
type TaskService interface {
	CreateTask(ctx context.Context, sess *session.Session, in TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, sess *session.Session, id string, in TaskInput) (*models.Task, error)
	// MoveTask changes only the status, as a drag between board columns does.
	MoveTask(ctx context.Context, sess *session.Session, id string, status string) (*models.Task, error)
	DeleteTask(ctx context.Context, sess *session.Session, id string, c Confirmer) error
}

type taskServiceImpl struct {
	repo TaskRepository
	Deps
}

// NewTaskService creates a TaskService.
func NewTaskService(repo TaskRepository, deps Deps) TaskService {
	return &taskServiceImpl{repo: repo, Deps: deps}
}

func (s *taskServiceImpl) validate(sess *session.Session, in TaskInput) (*models.Task, error) {
	title, err := validation.RequireText("title", in.Title)
	if err != nil {
		return nil, err
	}
	if in.DueDate.IsZero() {
		return nil, apperrors.NewValidationError("dueDate", "dueDate is required")
	}
	status := models.TaskTodo
	if strings.TrimSpace(in.Status) != "" {
		var ok bool
		if status, ok = models.ParseTaskStatus(in.Status); !ok {
			return nil, apperrors.NewValidationError("status", "Unknown task status")
		}
	}
	assignee := helpers.NullIfEmpty(in.AssigneeID)
	if assignee != nil {
		if _, ok := sess.Store.User(*assignee); !ok {
			return nil, apperrors.NewValidationError("assigneeId", "Assignee is not a member")
		}
	}
	return &models.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		AssigneeID:  assignee,
		Status:      status,
	}, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, sess *session.Session, in TaskInput) (*models.Task, error) {
	t, err := s.validate(sess, in)
	if err != nil {
		return nil, err
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateTask); err != nil {
		return nil, err
	}
	t.CreatedBy = actor.ID

	saved, err := s.repo.Create(ctx, t)
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to create task")
		return nil, err
	}
	sess.Store.UpsertTask(*saved)
	s.Badges.TaskAssigned(ctx, actor.ID, *saved)
	if saved.Status == models.TaskDone && saved.AssigneeID != nil {
		s.Badges.Evaluate(ctx, sess.Store, badges.TaskCompleted, *saved.AssigneeID)
	}
	return saved, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, sess *session.Session, id string, in TaskInput) (*models.Task, error) {
	current, ok := sess.Store.Task(id)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("task not found")
	}
	t, err := s.validate(sess, in)
	if err != nil {
		return nil, err
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapEditAnyTask); err != nil {
		return nil, err
	}
	t.ID = id
	t.CreatedBy = current.CreatedBy
	if strings.TrimSpace(in.Status) == "" {
		t.Status = current.Status
	}

	saved, err := s.repo.Update(ctx, t)
	if err != nil {
		s.Logger.Error().Err(err).Str("taskID", id).Str("userID", actor.ID).Msg("Failed to update task")
		return nil, err
	}
	sess.Store.UpsertTask(*saved)

	if helpers.Deref(saved.AssigneeID) != helpers.Deref(current.AssigneeID) {
		s.Badges.TaskAssigned(ctx, actor.ID, *saved)
	}
	s.afterStatusChange(ctx, sess, current, *saved)
	return saved, nil
}

func (s *taskServiceImpl) MoveTask(ctx context.Context, sess *session.Session, id string, status string) (*models.Task, error) {
	next, ok := models.ParseTaskStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError("status", "Unknown task status")
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapMoveTask); err != nil {
		return nil, err
	}
	current, ok := sess.Store.Task(id)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("task not found")
	}
	if current.Status == next {
		return &current, nil
	}

	saved, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		s.Logger.Error().Err(err).Str("taskID", id).Str("userID", actor.ID).Msg("Failed to move task")
		return nil, err
	}
	sess.Store.UpsertTask(*saved)
	s.afterStatusChange(ctx, sess, current, *saved)
	return saved, nil
}

// afterStatusChange feeds task-master when a task reaches done.
func (s *taskServiceImpl) afterStatusChange(ctx context.Context, sess *session.Session, before, after models.Task) {
	if before.Status == models.TaskDone || after.Status != models.TaskDone || after.AssigneeID == nil {
		return
	}
	s.Badges.Evaluate(ctx, sess.Store, badges.TaskCompleted, *after.AssigneeID)
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, sess *session.Session, id string, c Confirmer) error {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapDeleteTask); err != nil {
		return err
	}
	if _, ok := sess.Store.Task(id); !ok {
		return apperrors.NewResourceNotFoundError("task not found")
	}
	if err := confirm(ctx, c, "Are you sure you want to delete this task?"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("taskID", id).Str("userID", actor.ID).Msg("Failed to delete task")
		return err
	}
	sess.Store.RemoveTask(id)
	return nil
}
