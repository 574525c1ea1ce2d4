package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
)

const taskReturning = "RETURNING id, title, description, due_date, assignee_id, created_by, status, created_at"

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.AssigneeID, &t.CreatedBy, &t.Status, &t.CreatedAt)
}

// TaskRepository handles the task board
type TaskRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db, sb: newBuilder()}
}

// List returns tasks by due date.
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	query := r.sb.Select("id", "title", "description", "due_date", "assignee_id", "created_by", "status", "created_at").
		From("tasks").OrderBy("due_date ASC", "created_at ASC")
	return selectAll(ctx, r.db, query, "listing tasks", scanTask)
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	query := r.sb.Insert("tasks").
		Columns("title", "description", "due_date", "assignee_id", "created_by", "status").
		Values(t.Title, t.Description, t.DueDate, t.AssigneeID, t.CreatedBy, t.Status).
		Suffix(taskReturning)
	return queryOne(ctx, r.db, query, "creating task", "task", scanTask)
}

// Update replaces every editable field of a task.
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) (*models.Task, error) {
	query := r.sb.Update("tasks").
		Set("title", t.Title).
		Set("description", t.Description).
		Set("due_date", t.DueDate).
		Set("assignee_id", t.AssigneeID).
		Set("status", t.Status).
		Where(squirrel.Eq{"id": t.ID}).
		Suffix(taskReturning)
	return queryOne(ctx, r.db, query, "updating task", "task", scanTask)
}

// UpdateStatus moves a task to another board column.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	query := r.sb.Update("tasks").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		Suffix(taskReturning)
	return queryOne(ctx, r.db, query, "moving task", "task", scanTask)
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "tasks", id)
}
