package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
)

const courseColumns = `id, title, description, category, level, visibility, target_year, target_division,
        tags, thumbnail_url, created_by_clerk_id, enrolled_student_ids, created_at, updated_at`

// CourseRepository handles persistence of course aggregates.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns every course ordered by creation time, newest first. Role
// visibility and free-text filtering are applied by the access predicate
// before results reach callers.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses ORDER BY created_at DESC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course with its ordered module and lesson tree.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	const moduleQuery = `SELECT id, course_id, title, summary, position FROM modules
        WHERE course_id = $1 ORDER BY position ASC, id ASC`
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, moduleQuery, id); err != nil {
		return nil, fmt.Errorf("list course modules: %w", err)
	}

	const lessonQuery = `SELECT l.id, l.module_id, l.title, l.description, l.video_type, l.video_url,
        l.position, l.resources, l.duration, l.created_at
        FROM lessons l JOIN modules m ON m.id = l.module_id
        WHERE m.course_id = $1 ORDER BY l.position ASC, l.created_at ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, lessonQuery, id); err != nil {
		return nil, fmt.Errorf("list course lessons: %w", err)
	}

	byModule := make(map[string][]models.Lesson, len(modules))
	for _, lesson := range lessons {
		byModule[lesson.ModuleID] = append(byModule[lesson.ModuleID], lesson)
	}

	detail := &models.CourseDetail{Course: *course, Modules: make([]models.ModuleDetail, 0, len(modules))}
	for _, module := range modules {
		detail.Modules = append(detail.Modules, models.ModuleDetail{Module: module, Lessons: byModule[module.ID]})
	}
	return detail, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	if course.Tags == nil {
		course.Tags = pq.StringArray{}
	}
	if course.EnrolledStudentIDs == nil {
		course.EnrolledStudentIDs = pq.StringArray{}
	}
	const query = `INSERT INTO courses (id, title, description, category, level, visibility, target_year,
        target_division, tags, thumbnail_url, created_by_clerk_id, enrolled_student_ids, created_at, updated_at)
        VALUES (:id, :title, :description, :category, :level, :visibility, :target_year,
        :target_division, :tags, :thumbnail_url, :created_by_clerk_id, :enrolled_student_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, category = :category,
        level = :level, visibility = :visibility, target_year = :target_year, target_division = :target_division,
        tags = :tags, thumbnail_url = :thumbnail_url, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course; modules, lessons and discussions cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Enroll adds a student to the course's enrollment set, once.
func (r *CourseRepository) Enroll(ctx context.Context, courseID, studentClerkID string) error {
	const query = `UPDATE courses SET enrolled_student_ids = array_append(enrolled_student_ids, $2),
        updated_at = NOW() WHERE id = $1 AND NOT ($2 = ANY(enrolled_student_ids))`
	if _, err := r.db.ExecContext(ctx, query, courseID, studentClerkID); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}
