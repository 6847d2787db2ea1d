package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

func TestNormalizeRoleDefaultsToStudent(t *testing.T) {
	assert.Equal(t, models.RoleStudent, NormalizeRole(""))
	assert.Equal(t, models.RoleStudent, NormalizeRole("admin"))
	assert.Equal(t, models.RoleTeacher, NormalizeRole("teacher"))
	assert.Equal(t, models.RoleTeacher, NormalizeRole("TEACHER"))
}

func TestVisibleCoursesForStudent(t *testing.T) {
	student := models.StudentContext("stu-1", "2", "B")
	courses := []models.Course{
		{ID: "a", Visibility: models.VisibilityPublic, TargetYear: "3", TargetDivision: "C"},
		{ID: "b", Visibility: models.VisibilityRestricted, TargetYear: "2", TargetDivision: "B"},
		{ID: "c", Visibility: models.VisibilityRestricted, TargetYear: "3", TargetDivision: models.TargetAll},
	}

	visible := VisibleCourses(student, courses)

	require.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "b", visible[1].ID)
}

func TestVisibleCoursesWildcardAxesAreIndependent(t *testing.T) {
	student := models.StudentContext("stu-1", "2", "B")

	bothAll := models.Course{Visibility: models.VisibilityRestricted, TargetYear: models.TargetAll, TargetDivision: models.TargetAll}
	yearAll := models.Course{Visibility: models.VisibilityRestricted, TargetYear: models.TargetAll, TargetDivision: "B"}
	divisionAll := models.Course{Visibility: models.VisibilityRestricted, TargetYear: "2", TargetDivision: models.TargetAll}
	yearMismatch := models.Course{Visibility: models.VisibilityRestricted, TargetYear: "3", TargetDivision: models.TargetAll}

	assert.True(t, CanViewCourse(student, bothAll))
	assert.True(t, CanViewCourse(student, yearAll))
	assert.True(t, CanViewCourse(student, divisionAll))
	assert.False(t, CanViewCourse(student, yearMismatch))
}

func TestVisibleCoursesForTeacher(t *testing.T) {
	teacher := models.TeacherContext("t1")
	courses := []models.Course{
		{ID: "mine", CreatedByClerkID: "t1", Visibility: models.VisibilityRestricted},
		{ID: "theirs", CreatedByClerkID: "t2", Visibility: models.VisibilityPublic},
	}

	visible := VisibleCourses(teacher, courses)

	require.Len(t, visible, 1)
	assert.Equal(t, "mine", visible[0].ID)
}

func TestCanMutateCourseOwnerOnly(t *testing.T) {
	owned := models.Course{CreatedByClerkID: "t1"}
	foreign := models.Course{CreatedByClerkID: "t2"}

	assert.NoError(t, CanMutateCourse(models.TeacherContext("t1"), owned))

	err := CanMutateCourse(models.TeacherContext("t1"), foreign)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = CanMutateCourse(models.StudentContext("stu-1", "2", "B"), owned)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCanAskDiscussion(t *testing.T) {
	course := models.Course{Visibility: models.VisibilityPublic}

	assert.NoError(t, CanAskDiscussion(models.StudentContext("stu-1", "2", "B"), course, "why does gravity work?"))
	assert.NoError(t, CanAskDiscussion(models.TeacherContext("t1"), models.Course{CreatedByClerkID: "t1"}, "follow-up?"))

	err := CanAskDiscussion(models.StudentContext("stu-1", "2", "B"), course, "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = CanAskDiscussion(models.ViewerContext{Role: models.RoleStudent}, course, "question")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestCanReplyToDiscussion(t *testing.T) {
	course := models.Course{CreatedByClerkID: "t1", Visibility: models.VisibilityPublic}
	open := models.Discussion{Status: models.DiscussionOpen}

	assert.NoError(t, CanReplyToDiscussion(models.TeacherContext("t1"), course, open))
	assert.NoError(t, CanReplyToDiscussion(models.StudentContext("stu-1", "2", "B"), course, open))

	err := CanReplyToDiscussion(models.TeacherContext("t2"), course, open)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	closed := models.Discussion{Status: models.DiscussionClosed}
	err = CanReplyToDiscussion(models.TeacherContext("t1"), course, closed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDiscussionDone.Code, appErrors.FromError(err).Code)
}

func TestCanCloseDiscussionTeacherOwnerOnly(t *testing.T) {
	course := models.Course{CreatedByClerkID: "t1"}

	assert.NoError(t, CanCloseDiscussion(models.TeacherContext("t1"), course))
	assert.Error(t, CanCloseDiscussion(models.TeacherContext("t2"), course))
	assert.Error(t, CanCloseDiscussion(models.StudentContext("stu-1", "2", "B"), course))
}

func TestReplyStatusTransitions(t *testing.T) {
	// Any reply answers an open discussion, including the asker's own.
	assert.Equal(t, models.DiscussionAnswered, ReplyStatus(models.DiscussionOpen, ""))
	// Explicit override wins.
	assert.Equal(t, models.DiscussionOpen, ReplyStatus(models.DiscussionOpen, models.DiscussionOpen))
	assert.Equal(t, models.DiscussionClosed, ReplyStatus(models.DiscussionAnswered, models.DiscussionClosed))
	// Non-open statuses are left alone without an override.
	assert.Equal(t, models.DiscussionAnswered, ReplyStatus(models.DiscussionAnswered, ""))
}

func TestFilterCoursesByTagCaseInsensitive(t *testing.T) {
	courses := []models.Course{
		{ID: "go", Title: "Backend", Tags: []string{"Golang", "api"}},
		{ID: "js", Title: "Frontend", Tags: []string{"javascript"}},
		{ID: "misc", Title: "golang in the title"},
	}

	matched := FilterCourses(courses, "GOLANG")

	require.Len(t, matched, 2)
	assert.Equal(t, "go", matched[0].ID)
	assert.Equal(t, "misc", matched[1].ID)
}

func TestFilterCoursesEmptyQueryReturnsInputUnchanged(t *testing.T) {
	courses := []models.Course{{ID: "a"}, {ID: "b"}}

	assert.Equal(t, courses, FilterCourses(courses, ""))
	assert.Equal(t, courses, FilterCourses(courses, "   "))
}
