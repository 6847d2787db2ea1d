package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jadhavharshh/ConnectX-sub001/internal/access"
	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

type discussionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Discussion, error)
	List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, error)
	Create(ctx context.Context, discussion *models.Discussion) error
	UpdateStatus(ctx context.Context, id string, status models.DiscussionStatus) error
	AppendMessage(ctx context.Context, message *models.Message) error
	MessagesByDiscussion(ctx context.Context, discussionID string) ([]models.Message, error)
}

// ReplyNotifier delivers discussion activity over the realtime channel.
// Delivery is best-effort: a failed notification never fails the reply.
type ReplyNotifier interface {
	NotifyDiscussionReply(discussion models.Discussion, message models.Message, recipients []string)
}

// AskDiscussionRequest opens a discussion on a lesson.
type AskDiscussionRequest struct {
	Question string  `json:"question" validate:"required,min=2"`
	ModuleID *string `json:"module_id"`
}

// ReplyRequest appends a message to a discussion. Status optionally
// overrides the default open-to-answered transition.
type ReplyRequest struct {
	Message string `json:"message" validate:"required,min=1"`
	Status  string `json:"status" validate:"omitempty,oneof=open answered closed"`
}

// DiscussionService orchestrates lesson discussions and their replies.
type DiscussionService struct {
	repo      discussionRepository
	courses   courseReader
	notifier  ReplyNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDiscussionService constructs DiscussionService. A nil notifier disables
// realtime delivery.
func NewDiscussionService(repo discussionRepository, courses courseReader, notifier ReplyNotifier, validate *validator.Validate, logger *zap.Logger) *DiscussionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscussionService{repo: repo, courses: courses, notifier: notifier, validator: validate, logger: logger}
}

// ListForLesson returns the discussions on a lesson with their message
// sequences, subject to course visibility.
func (s *DiscussionService) ListForLesson(ctx context.Context, viewer models.ViewerContext, courseID, lessonID string) ([]models.DiscussionDetail, error) {
	if _, err := s.loadVisibleCourse(ctx, viewer, courseID); err != nil {
		return nil, err
	}
	return s.listDetails(ctx, models.DiscussionFilter{CourseID: courseID, LessonID: lessonID})
}

// ListForCourse returns a course's discussions, optionally by status.
func (s *DiscussionService) ListForCourse(ctx context.Context, viewer models.ViewerContext, courseID string, status models.DiscussionStatus) ([]models.DiscussionDetail, error) {
	if _, err := s.loadVisibleCourse(ctx, viewer, courseID); err != nil {
		return nil, err
	}
	return s.listDetails(ctx, models.DiscussionFilter{CourseID: courseID, Status: status})
}

// Ask opens a discussion on a lesson of a visible course.
func (s *DiscussionService) Ask(ctx context.Context, viewer models.ViewerContext, courseID, lessonID string, req AskDiscussionRequest) (*models.Discussion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discussion payload")
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := access.CanAskDiscussion(viewer, *course, req.Question); err != nil {
		return nil, err
	}

	discussion := &models.Discussion{
		CourseID:       courseID,
		ModuleID:       req.ModuleID,
		LessonID:       lessonID,
		Question:       req.Question,
		AskedByClerkID: viewer.ClerkUserID,
		Status:         models.DiscussionOpen,
	}
	if err := s.repo.Create(ctx, discussion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create discussion")
	}
	return discussion, nil
}

// Reply appends a message and resolves the status transition: open
// discussions become answered unless an explicit status is supplied. The
// asker and the course owner are notified over the realtime channel.
func (s *DiscussionService) Reply(ctx context.Context, viewer models.ViewerContext, discussionID string, req ReplyRequest) (*models.Discussion, *models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload")
	}

	discussion, err := s.loadDiscussion(ctx, discussionID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.loadCourse(ctx, discussion.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if err := access.CanReplyToDiscussion(viewer, *course, *discussion); err != nil {
		return nil, nil, err
	}

	message := &models.Message{
		DiscussionID:  discussionID,
		SenderClerkID: viewer.ClerkUserID,
		SenderRole:    viewer.Role,
		Message:       req.Message,
	}
	if err := s.repo.AppendMessage(ctx, message); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append reply")
	}

	next := access.ReplyStatus(discussion.Status, models.DiscussionStatus(req.Status))
	if next != discussion.Status {
		if err := s.repo.UpdateStatus(ctx, discussionID, next); err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update discussion status")
		}
		discussion.Status = next
	}

	if s.notifier != nil {
		recipients := replyRecipients(*discussion, *course, viewer.ClerkUserID)
		s.notifier.NotifyDiscussionReply(*discussion, *message, recipients)
	}

	return discussion, message, nil
}

// Close ends a discussion; teacher-only, owner-only.
func (s *DiscussionService) Close(ctx context.Context, viewer models.ViewerContext, discussionID string) (*models.Discussion, error) {
	discussion, err := s.loadDiscussion(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, discussion.CourseID)
	if err != nil {
		return nil, err
	}
	if err := access.CanCloseDiscussion(viewer, *course); err != nil {
		return nil, err
	}

	if discussion.Status != models.DiscussionClosed {
		if err := s.repo.UpdateStatus(ctx, discussionID, models.DiscussionClosed); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close discussion")
		}
		discussion.Status = models.DiscussionClosed
	}
	return discussion, nil
}

func (s *DiscussionService) listDetails(ctx context.Context, filter models.DiscussionFilter) ([]models.DiscussionDetail, error) {
	discussions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list discussions")
	}
	details := make([]models.DiscussionDetail, 0, len(discussions))
	for _, discussion := range discussions {
		messages, err := s.repo.MessagesByDiscussion(ctx, discussion.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion messages")
		}
		details = append(details, models.DiscussionDetail{Discussion: discussion, Messages: messages})
	}
	return details, nil
}

func (s *DiscussionService) loadDiscussion(ctx context.Context, id string) (*models.Discussion, error) {
	discussion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discussion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion")
	}
	return discussion, nil
}

func (s *DiscussionService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *DiscussionService) loadVisibleCourse(ctx context.Context, viewer models.ViewerContext, courseID string) (*models.Course, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !access.CanViewCourse(viewer, *course) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// replyRecipients targets the asker and the course owner, excluding the
// sender themselves.
func replyRecipients(discussion models.Discussion, course models.Course, senderID string) []string {
	seen := map[string]struct{}{senderID: {}}
	var recipients []string
	for _, id := range []string{discussion.AskedByClerkID, course.CreatedByClerkID} {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}
	return recipients
}
