package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

type mockCourseRepo struct {
	courses     map[string]models.Course
	order       []string
	updateCalls int
	deleteCalls int
	enrollCalls int
}

func (m *mockCourseRepo) List(ctx context.Context) ([]models.Course, error) {
	list := make([]models.Course, 0, len(m.order))
	for _, id := range m.order {
		list = append(list, m.courses[id])
	}
	return list, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &models.CourseDetail{Course: c}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	m.courses[course.ID] = *course
	m.order = append(m.order, course.ID)
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.updateCalls++
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deleteCalls++
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) Enroll(ctx context.Context, courseID, studentClerkID string) error {
	m.enrollCalls++
	return nil
}

func newCourseRepo(courses ...models.Course) *mockCourseRepo {
	repo := &mockCourseRepo{courses: make(map[string]models.Course)}
	for _, c := range courses {
		repo.courses[c.ID] = c
		repo.order = append(repo.order, c.ID)
	}
	return repo
}

func TestCourseServiceListStudentVisibility(t *testing.T) {
	repo := newCourseRepo(
		models.Course{ID: "a", Visibility: models.VisibilityPublic},
		models.Course{ID: "b", Visibility: models.VisibilityRestricted, TargetYear: "2", TargetDivision: "B"},
		models.Course{ID: "c", Visibility: models.VisibilityRestricted, TargetYear: "3", TargetDivision: models.TargetAll},
	)
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	student := models.StudentContext("stu-1", "2", "B")
	courses, pagination, err := svc.List(context.Background(), student, models.CourseFilter{})

	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "a", courses[0].ID)
	assert.Equal(t, "b", courses[1].ID)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestCourseServiceListSearchByTag(t *testing.T) {
	repo := newCourseRepo(
		models.Course{ID: "go", Visibility: models.VisibilityPublic, Tags: []string{"Golang"}},
		models.Course{ID: "js", Visibility: models.VisibilityPublic, Tags: []string{"javascript"}},
	)
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)
	student := models.StudentContext("stu-1", "2", "B")

	courses, _, err := svc.List(context.Background(), student, models.CourseFilter{Search: "golang"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "go", courses[0].ID)

	// Empty query leaves the role-filtered set unchanged.
	courses, _, err = svc.List(context.Background(), student, models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestCourseServiceUpdateDeniedWithoutRepositoryWrite(t *testing.T) {
	repo := newCourseRepo(models.Course{ID: "c1", CreatedByClerkID: "t2"})
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	title := "hijacked"
	_, err := svc.Update(context.Background(), models.TeacherContext("t1"), "c1", UpdateCourseRequest{Title: &title})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.updateCalls)
}

func TestCourseServiceUpdateByOwner(t *testing.T) {
	repo := newCourseRepo(models.Course{ID: "c1", CreatedByClerkID: "t1", Title: "old"})
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	title := "new title"
	course, err := svc.Update(context.Background(), models.TeacherContext("t1"), "c1", UpdateCourseRequest{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "new title", course.Title)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestCourseServiceDeleteDeniedForStudent(t *testing.T) {
	repo := newCourseRepo(models.Course{ID: "c1", CreatedByClerkID: "t1", Visibility: models.VisibilityPublic})
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	err := svc.Delete(context.Background(), models.StudentContext("stu-1", "2", "B"), "c1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.deleteCalls)
}

func TestCourseServiceCreateRequiresTeacher(t *testing.T) {
	repo := newCourseRepo()
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.StudentContext("stu-1", "2", "B"), CreateCourseRequest{
		Title: "Physics", Description: "intro", Category: "science",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceCreateDefaults(t *testing.T) {
	repo := newCourseRepo()
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	course, err := svc.Create(context.Background(), models.TeacherContext("t1"), CreateCourseRequest{
		Title: "Physics", Description: "intro", Category: "science",
	})

	require.NoError(t, err)
	assert.Equal(t, models.LevelAll, course.Level)
	assert.Equal(t, models.VisibilityPublic, course.Visibility)
	assert.Equal(t, models.TargetAll, course.TargetYear)
	assert.Equal(t, models.TargetAll, course.TargetDivision)
	assert.Equal(t, "t1", course.CreatedByClerkID)
}

func TestCourseServiceGetHidesInvisibleCourse(t *testing.T) {
	repo := newCourseRepo(models.Course{ID: "c1", Visibility: models.VisibilityRestricted, TargetYear: "3", TargetDivision: "C"})
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	_, err := svc.Get(context.Background(), models.StudentContext("stu-1", "2", "B"), "c1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceEnroll(t *testing.T) {
	repo := newCourseRepo(models.Course{ID: "c1", Visibility: models.VisibilityPublic})
	svc := NewCourseService(repo, nil, time.Minute, nil, nil, nil)

	require.NoError(t, svc.Enroll(context.Background(), models.StudentContext("stu-1", "2", "B"), "c1"))
	assert.Equal(t, 1, repo.enrollCalls)

	err := svc.Enroll(context.Background(), models.TeacherContext("t1"), "c1")
	require.Error(t, err)
	assert.Equal(t, 1, repo.enrollCalls)
}
