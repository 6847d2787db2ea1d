package models

import "time"

// DiscussionStatus tracks the lifecycle of a lesson discussion.
type DiscussionStatus string

const (
	DiscussionOpen     DiscussionStatus = "open"
	DiscussionAnswered DiscussionStatus = "answered"
	DiscussionClosed   DiscussionStatus = "closed"
)

// Discussion is a question asked on a lesson. It references its course,
// lesson and optionally module by ID and exclusively owns its messages.
// Discussions are never deleted in the normal flow.
type Discussion struct {
	ID             string           `db:"id" json:"id"`
	CourseID       string           `db:"course_id" json:"course_id"`
	ModuleID       *string          `db:"module_id" json:"module_id,omitempty"`
	LessonID       string           `db:"lesson_id" json:"lesson_id"`
	Question       string           `db:"question" json:"question"`
	AskedByClerkID string           `db:"asked_by_clerk_id" json:"asked_by_clerk_id"`
	Status         DiscussionStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// Message is one reply within a discussion. Messages are append-only and
// immutable once stored; Seq preserves delivery order.
type Message struct {
	ID            string    `db:"id" json:"id"`
	DiscussionID  string    `db:"discussion_id" json:"discussion_id"`
	SenderClerkID string    `db:"sender_clerk_id" json:"sender_clerk_id"`
	SenderRole    UserRole  `db:"sender_role" json:"sender_role"`
	Message       string    `db:"message" json:"message"`
	Seq           int64     `db:"seq" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DiscussionDetail bundles a discussion with its ordered messages.
type DiscussionDetail struct {
	Discussion
	Messages []Message `json:"messages"`
}

// DiscussionFilter captures listing criteria for discussions.
type DiscussionFilter struct {
	CourseID string
	LessonID string
	Status   DiscussionStatus
}
