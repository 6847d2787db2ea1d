package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

type mockDiscussionRepo struct {
	discussions   map[string]models.Discussion
	messages      map[string][]models.Message
	nextSeq       int64
	statusUpdates []models.DiscussionStatus
}

func newDiscussionRepo(discussions ...models.Discussion) *mockDiscussionRepo {
	repo := &mockDiscussionRepo{
		discussions: make(map[string]models.Discussion),
		messages:    make(map[string][]models.Message),
	}
	for _, d := range discussions {
		repo.discussions[d.ID] = d
	}
	return repo
}

func (m *mockDiscussionRepo) FindByID(ctx context.Context, id string) (*models.Discussion, error) {
	if d, ok := m.discussions[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDiscussionRepo) List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, error) {
	var out []models.Discussion
	for _, d := range m.discussions {
		if filter.CourseID != "" && d.CourseID != filter.CourseID {
			continue
		}
		if filter.LessonID != "" && d.LessonID != filter.LessonID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDiscussionRepo) Create(ctx context.Context, discussion *models.Discussion) error {
	if discussion.ID == "" {
		discussion.ID = fmt.Sprintf("disc-%d", len(m.discussions)+1)
	}
	m.discussions[discussion.ID] = *discussion
	return nil
}

func (m *mockDiscussionRepo) UpdateStatus(ctx context.Context, id string, status models.DiscussionStatus) error {
	d, ok := m.discussions[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Status = status
	m.discussions[id] = d
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockDiscussionRepo) AppendMessage(ctx context.Context, message *models.Message) error {
	m.nextSeq++
	message.ID = fmt.Sprintf("msg-%d", m.nextSeq)
	message.Seq = m.nextSeq
	message.CreatedAt = time.Now().UTC()
	m.messages[message.DiscussionID] = append(m.messages[message.DiscussionID], *message)
	return nil
}

func (m *mockDiscussionRepo) MessagesByDiscussion(ctx context.Context, discussionID string) ([]models.Message, error) {
	return m.messages[discussionID], nil
}

type mockNotifier struct {
	calls []struct {
		discussion models.Discussion
		message    models.Message
		recipients []string
	}
}

func (m *mockNotifier) NotifyDiscussionReply(discussion models.Discussion, message models.Message, recipients []string) {
	m.calls = append(m.calls, struct {
		discussion models.Discussion
		message    models.Message
		recipients []string
	}{discussion, message, recipients})
}

func discussionFixture() (*mockCourseRepo, *mockDiscussionRepo) {
	courses := newCourseRepo(models.Course{
		ID:               "c1",
		CreatedByClerkID: "teacher-1",
		Visibility:       models.VisibilityPublic,
	})
	discussions := newDiscussionRepo(models.Discussion{
		ID:             "d1",
		CourseID:       "c1",
		LessonID:       "l1",
		Question:       "what is a pointer?",
		AskedByClerkID: "student-1",
		Status:         models.DiscussionOpen,
	})
	return courses, discussions
}

func TestDiscussionServiceReplyMarksAnswered(t *testing.T) {
	courses, discussions := discussionFixture()
	svc := NewDiscussionService(discussions, courses, nil, nil, nil)

	discussion, message, err := svc.Reply(context.Background(), models.TeacherContext("teacher-1"), "d1", ReplyRequest{Message: "a memory address"})

	require.NoError(t, err)
	assert.Equal(t, models.DiscussionAnswered, discussion.Status)
	assert.Equal(t, models.RoleTeacher, message.SenderRole)
	assert.Equal(t, []models.DiscussionStatus{models.DiscussionAnswered}, discussions.statusUpdates)
}

func TestDiscussionServiceReplyExplicitStatusWins(t *testing.T) {
	courses, discussions := discussionFixture()
	svc := NewDiscussionService(discussions, courses, nil, nil, nil)

	discussion, _, err := svc.Reply(context.Background(), models.TeacherContext("teacher-1"), "d1", ReplyRequest{
		Message: "needs more detail",
		Status:  "open",
	})

	require.NoError(t, err)
	assert.Equal(t, models.DiscussionOpen, discussion.Status)
	assert.Empty(t, discussions.statusUpdates)
}

func TestDiscussionServiceReplyToClosedRejected(t *testing.T) {
	courses, discussions := discussionFixture()
	d := discussions.discussions["d1"]
	d.Status = models.DiscussionClosed
	discussions.discussions["d1"] = d
	svc := NewDiscussionService(discussions, courses, nil, nil, nil)

	_, _, err := svc.Reply(context.Background(), models.TeacherContext("teacher-1"), "d1", ReplyRequest{Message: "too late"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDiscussionDone.Code, appErrors.FromError(err).Code)
	assert.Empty(t, discussions.messages["d1"])
}

func TestDiscussionServiceReplyByForeignTeacherRejected(t *testing.T) {
	courses, discussions := discussionFixture()
	svc := NewDiscussionService(discussions, courses, nil, nil, nil)

	_, _, err := svc.Reply(context.Background(), models.TeacherContext("teacher-2"), "d1", ReplyRequest{Message: "not my course"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, discussions.messages["d1"])
}

func TestDiscussionServiceReplyNotifiesAskerAndOwner(t *testing.T) {
	courses, discussions := discussionFixture()
	notifier := &mockNotifier{}
	svc := NewDiscussionService(discussions, courses, notifier, nil, nil)

	_, _, err := svc.Reply(context.Background(), models.StudentContext("student-2", "2", "B"), "d1", ReplyRequest{Message: "same question here"})

	require.NoError(t, err)
	require.Len(t, notifier.calls, 1)
	assert.ElementsMatch(t, []string{"student-1", "teacher-1"}, notifier.calls[0].recipients)
}

func TestDiscussionServiceReplyDoesNotNotifySender(t *testing.T) {
	courses, discussions := discussionFixture()
	notifier := &mockNotifier{}
	svc := NewDiscussionService(discussions, courses, notifier, nil, nil)

	_, _, err := svc.Reply(context.Background(), models.TeacherContext("teacher-1"), "d1", ReplyRequest{Message: "answered"})

	require.NoError(t, err)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, []string{"student-1"}, notifier.calls[0].recipients)
}

func TestDiscussionServiceReplyAppendsInOrder(t *testing.T) {
	courses, discussions := discussionFixture()
	svc := NewDiscussionService(discussions, courses, nil, nil, nil)
	teacher := models.TeacherContext("teacher-1")

	for _, text := range []string{"first", "second", "third"} {
		_, _, err := svc.Reply(context.Background(), teacher, "d1", ReplyRequest{Message: text})
		require.NoError(t, err)
	}

	details, err := svc.ListForLesson(context.Background(), teacher, "c1", "l1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Len(t, details[0].Messages, 3)
	assert.Equal(t, "first", details[0].Messages[0].Message)
	assert.Equal(t, "second", details[0].Messages[1].Message)
	assert.Equal(t, "third", details[0].Messages[2].Message)
}

func TestDiscussionServiceCloseRules(t *testing.T) {
	courses, discussions := discussionFixture()
	svc := NewDiscussionService(discussions, courses, nil, nil, nil)

	_, err := svc.Close(context.Background(), models.StudentContext("student-1", "2", "B"), "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Close(context.Background(), models.TeacherContext("teacher-2"), "d1")
	require.Error(t, err)

	discussion, err := svc.Close(context.Background(), models.TeacherContext("teacher-1"), "d1")
	require.NoError(t, err)
	assert.Equal(t, models.DiscussionClosed, discussion.Status)
}

func TestDiscussionServiceAsk(t *testing.T) {
	courses, discussions := discussionFixture()
	svc := NewDiscussionService(discussions, courses, nil, nil, nil)

	discussion, err := svc.Ask(context.Background(), models.StudentContext("student-9", "2", "B"), "c1", "l1", AskDiscussionRequest{
		Question: "why does this panic?",
	})

	require.NoError(t, err)
	assert.Equal(t, models.DiscussionOpen, discussion.Status)
	assert.Equal(t, "student-9", discussion.AskedByClerkID)

	_, err = svc.Ask(context.Background(), models.StudentContext("student-9", "2", "B"), "c1", "l1", AskDiscussionRequest{Question: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
