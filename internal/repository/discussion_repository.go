package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
)

const discussionColumns = `id, course_id, module_id, lesson_id, question, asked_by_clerk_id, status, created_at, updated_at`

// DiscussionRepository handles persistence of discussions and their
// append-only message sequences.
type DiscussionRepository struct {
	db *sqlx.DB
}

// NewDiscussionRepository constructs the repository.
func NewDiscussionRepository(db *sqlx.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

// FindByID returns a discussion by its ID.
func (r *DiscussionRepository) FindByID(ctx context.Context, id string) (*models.Discussion, error) {
	query := fmt.Sprintf("SELECT %s FROM discussions WHERE id = $1", discussionColumns)
	var discussion models.Discussion
	if err := r.db.GetContext(ctx, &discussion, query, id); err != nil {
		return nil, err
	}
	return &discussion, nil
}

// List returns discussions matching the filter, oldest question first.
func (r *DiscussionRepository) List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.LessonID != "" {
		conditions = append(conditions, fmt.Sprintf("lesson_id = $%d", len(args)+1))
		args = append(args, filter.LessonID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM discussions%s ORDER BY created_at ASC", discussionColumns, clause)
	var discussions []models.Discussion
	if err := r.db.SelectContext(ctx, &discussions, query, args...); err != nil {
		return nil, fmt.Errorf("list discussions: %w", err)
	}
	return discussions, nil
}

// Create persists a new discussion in the open state.
func (r *DiscussionRepository) Create(ctx context.Context, discussion *models.Discussion) error {
	if discussion.ID == "" {
		discussion.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if discussion.CreatedAt.IsZero() {
		discussion.CreatedAt = now
	}
	discussion.UpdatedAt = now
	if discussion.Status == "" {
		discussion.Status = models.DiscussionOpen
	}
	const query = `INSERT INTO discussions (id, course_id, module_id, lesson_id, question, asked_by_clerk_id, status, created_at, updated_at)
        VALUES (:id, :course_id, :module_id, :lesson_id, :question, :asked_by_clerk_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, discussion); err != nil {
		return fmt.Errorf("create discussion: %w", err)
	}
	return nil
}

// UpdateStatus moves a discussion through its lifecycle.
func (r *DiscussionRepository) UpdateStatus(ctx context.Context, id string, status models.DiscussionStatus) error {
	const query = `UPDATE discussions SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update discussion status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendMessage adds a reply to a discussion. Messages are immutable once
// stored; seq is assigned by the database and fixes the append order.
func (r *DiscussionRepository) AppendMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, discussion_id, sender_clerk_id, sender_role, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING seq`
	if err := r.db.GetContext(ctx, &message.Seq, query,
		message.ID, message.DiscussionID, message.SenderClerkID, message.SenderRole, message.Message, message.CreatedAt); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// MessagesByDiscussion returns the message sequence in append order. The
// order is fixed by seq and never reinterpreted from timestamps.
func (r *DiscussionRepository) MessagesByDiscussion(ctx context.Context, discussionID string) ([]models.Message, error) {
	const query = `SELECT id, discussion_id, sender_clerk_id, sender_role, message, seq, created_at
        FROM messages WHERE discussion_id = $1 ORDER BY seq ASC`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, discussionID); err != nil {
		return nil, fmt.Errorf("list discussion messages: %w", err)
	}
	return messages, nil
}
