package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jadhavharshh/ConnectX-sub001/internal/access"
	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	Enroll(ctx context.Context, courseID, studentClerkID string) error
}

type courseCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateCourseLists(ctx context.Context) error
}

// CreateCourseRequest describes course creation.
type CreateCourseRequest struct {
	Title          string   `json:"title" validate:"required,min=3"`
	Description    string   `json:"description" validate:"required"`
	Category       string   `json:"category" validate:"required"`
	Level          string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced all"`
	Visibility     string   `json:"visibility" validate:"omitempty,oneof=public restricted"`
	TargetYear     string   `json:"target_year"`
	TargetDivision string   `json:"target_division"`
	Tags           []string `json:"tags"`
	ThumbnailURL   string   `json:"thumbnail_url" validate:"omitempty,url"`
}

// UpdateCourseRequest describes a partial course update.
type UpdateCourseRequest struct {
	Title          *string   `json:"title" validate:"omitempty,min=3"`
	Description    *string   `json:"description"`
	Category       *string   `json:"category"`
	Level          *string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced all"`
	Visibility     *string   `json:"visibility" validate:"omitempty,oneof=public restricted"`
	TargetYear     *string   `json:"target_year"`
	TargetDivision *string   `json:"target_division"`
	Tags           *[]string `json:"tags"`
	ThumbnailURL   *string   `json:"thumbnail_url" validate:"omitempty,url"`
}

// CourseService orchestrates course listing and authoring. Every operation
// consults the access predicate before touching the repository.
type CourseService struct {
	repo      courseRepository
	cache     courseCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService. A nil cache disables caching;
// a nil metrics service disables cache counters.
func NewCourseService(repo courseRepository, cache courseCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// List returns the courses visible to the viewer, optionally narrowed by a
// free-text search, with pagination applied after filtering.
func (s *CourseService) List(ctx context.Context, viewer models.ViewerContext, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	key := ""
	if s.cache != nil {
		key = cacheKeyForViewer(viewer, filter.Search)
		var cached []models.Course
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			return paginateCourses(cached, filter)
		}
		if s.metrics != nil {
			s.metrics.RecordCacheMiss()
		}
	}

	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	visible := access.FilterCourses(access.VisibleCourses(viewer, courses), filter.Search)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, visible, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache course list", zap.Error(err))
		}
	}

	return paginateCourses(visible, filter)
}

// Get returns one course with its module tree, subject to visibility.
func (s *CourseService) Get(ctx context.Context, viewer models.ViewerContext, id string) (*models.CourseDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !access.CanViewCourse(viewer, detail.Course) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return detail, nil
}

// Create authors a new course owned by the calling teacher.
func (s *CourseService) Create(ctx context.Context, viewer models.ViewerContext, req CreateCourseRequest) (*models.Course, error) {
	if !viewer.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers may create courses")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Level:            models.CourseLevel(defaultString(req.Level, string(models.LevelAll))),
		Visibility:       models.CourseVisibility(defaultString(req.Visibility, string(models.VisibilityPublic))),
		TargetYear:       defaultString(req.TargetYear, models.TargetAll),
		TargetDivision:   defaultString(req.TargetDivision, models.TargetAll),
		Tags:             pq.StringArray(req.Tags),
		ThumbnailURL:     req.ThumbnailURL,
		CreatedByClerkID: viewer.ClerkUserID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateListings(ctx)
	return course, nil
}

// Update mutates an owned course. Denial happens before any write.
func (s *CourseService) Update(ctx context.Context, viewer models.ViewerContext, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.loadOwnedCourse(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = models.CourseLevel(*req.Level)
	}
	if req.Visibility != nil {
		course.Visibility = models.CourseVisibility(*req.Visibility)
	}
	if req.TargetYear != nil {
		course.TargetYear = *req.TargetYear
	}
	if req.TargetDivision != nil {
		course.TargetDivision = *req.TargetDivision
	}
	if req.Tags != nil {
		course.Tags = pq.StringArray(*req.Tags)
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = *req.ThumbnailURL
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateListings(ctx)
	return course, nil
}

// Delete removes an owned course and its whole aggregate.
func (s *CourseService) Delete(ctx context.Context, viewer models.ViewerContext, id string) error {
	if _, err := s.loadOwnedCourse(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidateListings(ctx)
	return nil
}

// Enroll adds the calling student to a visible course's roster.
func (s *CourseService) Enroll(ctx context.Context, viewer models.ViewerContext, id string) error {
	if viewer.IsTeacher() {
		return appErrors.Clone(appErrors.ErrForbidden, "teachers do not enroll in courses")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !access.CanViewCourse(viewer, *course) {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if err := s.repo.Enroll(ctx, id, viewer.ClerkUserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	s.invalidateListings(ctx)
	return nil
}

// loadOwnedCourse fetches a course and enforces owner-only mutation.
func (s *CourseService) loadOwnedCourse(ctx context.Context, viewer models.ViewerContext, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := access.CanMutateCourse(viewer, *course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCourseLists(ctx); err != nil {
		s.logger.Warn("failed to invalidate course list cache", zap.Error(err))
	}
}

func cacheKeyForViewer(viewer models.ViewerContext, search string) string {
	return "courses:list:" + string(viewer.Role) + ":" + viewer.ClerkUserID + ":" + viewer.Year + ":" + viewer.Division + ":" + search
}

func paginateCourses(courses []models.Course, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(courses)}

	start := (page - 1) * size
	if start >= len(courses) {
		return []models.Course{}, pagination, nil
	}
	end := start + size
	if end > len(courses) {
		end = len(courses)
	}
	return courses[start:end], pagination, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
