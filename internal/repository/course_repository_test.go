package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "category", "level", "visibility", "target_year", "target_division",
		"tags", "thumbnail_url", "created_by_clerk_id", "enrolled_student_ids", "created_at", "updated_at",
	})
}

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := courseRows().
		AddRow("c1", "Go Backend", "learn go", "programming", models.LevelBeginner, models.VisibilityPublic,
			"2", "B", pq.StringArray{"golang"}, "", "t1", pq.StringArray{}, now, now)
	mock.ExpectQuery("SELECT .+ FROM courses ORDER BY created_at DESC").WillReturnRows(rows)

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "Go Backend", courses[0].Title)
	require.Equal(t, pq.StringArray{"golang"}, courses[0].Tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := courseRows().
		AddRow("c1", "Go Backend", "learn go", "programming", models.LevelBeginner, models.VisibilityRestricted,
			"2", "All", pq.StringArray{}, "", "t1", pq.StringArray{"stu-1"}, now, now)
	mock.ExpectQuery(`SELECT .+ FROM courses WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "c1", course.ID)
	require.Equal(t, models.VisibilityRestricted, course.Visibility)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{Title: "Algorithms", CreatedByClerkID: "t1"}
	require.NoError(t, repo.Create(context.Background(), course))
	require.NotEmpty(t, course.ID)
	require.False(t, course.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryEnrollIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET enrolled_student_ids = array_append(enrolled_student_ids, $2)")).
		WithArgs("c1", "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Enroll(context.Background(), "c1", "stu-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
