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

type moduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Module, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Module, error)
	Create(ctx context.Context, module *models.Module) error
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id string) error
}

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// AddModuleRequest describes module creation.
type AddModuleRequest struct {
	Title    string  `json:"title" validate:"required,min=2"`
	Summary  *string `json:"summary"`
	Position int     `json:"position" validate:"omitempty,min=1"`
}

// UpdateModuleRequest describes a partial module update.
type UpdateModuleRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=2"`
	Summary  *string `json:"summary"`
	Position *int    `json:"position" validate:"omitempty,min=1"`
}

// AddLessonRequest describes lesson creation. VideoURL points at media the
// upload pipeline has already stored; this service never handles files.
type AddLessonRequest struct {
	Title       string                  `json:"title" validate:"required,min=2"`
	Description *string                 `json:"description"`
	VideoType   string                  `json:"video_type" validate:"required,oneof=upload youtube"`
	VideoURL    string                  `json:"video_url" validate:"required,url"`
	Position    int                     `json:"position" validate:"omitempty,min=1"`
	Resources   []models.LessonResource `json:"resources"`
	Duration    *string                 `json:"duration"`
}

// UpdateLessonRequest describes a partial lesson update.
type UpdateLessonRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,min=2"`
	Description *string                  `json:"description"`
	VideoType   *string                  `json:"video_type" validate:"omitempty,oneof=upload youtube"`
	VideoURL    *string                  `json:"video_url" validate:"omitempty,url"`
	Position    *int                     `json:"position" validate:"omitempty,min=1"`
	Resources   *[]models.LessonResource `json:"resources"`
	Duration    *string                  `json:"duration"`
}

// ContentService manages the module and lesson structure inside a course.
// Every mutation re-checks course ownership before touching storage.
type ContentService struct {
	modules   moduleRepository
	lessons   lessonRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContentService constructs ContentService.
func NewContentService(modules moduleRepository, lessons lessonRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{modules: modules, lessons: lessons, courses: courses, validator: validate, logger: logger}
}

// AddModule appends a module to an owned course.
func (s *ContentService) AddModule(ctx context.Context, viewer models.ViewerContext, courseID string, req AddModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	if err := s.requireOwnership(ctx, viewer, courseID); err != nil {
		return nil, err
	}

	module := &models.Module{CourseID: courseID, Title: req.Title, Summary: req.Summary, Position: req.Position}
	if err := s.modules.Create(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return module, nil
}

// UpdateModule mutates a module inside an owned course.
func (s *ContentService) UpdateModule(ctx context.Context, viewer models.ViewerContext, courseID, moduleID string, req UpdateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	module, err := s.loadOwnedModule(ctx, viewer, courseID, moduleID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Summary != nil {
		module.Summary = req.Summary
	}
	if req.Position != nil {
		module.Position = *req.Position
	}

	if err := s.modules.Update(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return module, nil
}

// DeleteModule removes a module and its lessons from an owned course.
func (s *ContentService) DeleteModule(ctx context.Context, viewer models.ViewerContext, courseID, moduleID string) error {
	if _, err := s.loadOwnedModule(ctx, viewer, courseID, moduleID); err != nil {
		return err
	}
	if err := s.modules.Delete(ctx, moduleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module")
	}
	return nil
}

// AddLesson appends a lesson to a module of an owned course.
func (s *ContentService) AddLesson(ctx context.Context, viewer models.ViewerContext, courseID, moduleID string, req AddLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if _, err := s.loadOwnedModule(ctx, viewer, courseID, moduleID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		ModuleID:    moduleID,
		Title:       req.Title,
		Description: req.Description,
		VideoType:   models.VideoType(req.VideoType),
		VideoURL:    req.VideoURL,
		Position:    req.Position,
		Resources:   req.Resources,
		Duration:    req.Duration,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	return lesson, nil
}

// UpdateLesson mutates a lesson inside an owned course.
func (s *ContentService) UpdateLesson(ctx context.Context, viewer models.ViewerContext, courseID, moduleID, lessonID string, req UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	lesson, err := s.loadOwnedLesson(ctx, viewer, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Description != nil {
		lesson.Description = req.Description
	}
	if req.VideoType != nil {
		lesson.VideoType = models.VideoType(*req.VideoType)
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
	}
	if req.Position != nil {
		lesson.Position = *req.Position
	}
	if req.Resources != nil {
		lesson.Resources = *req.Resources
	}
	if req.Duration != nil {
		lesson.Duration = req.Duration
	}

	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return lesson, nil
}

// DeleteLesson removes a lesson from an owned course.
func (s *ContentService) DeleteLesson(ctx context.Context, viewer models.ViewerContext, courseID, moduleID, lessonID string) error {
	if _, err := s.loadOwnedLesson(ctx, viewer, courseID, moduleID, lessonID); err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, lessonID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

func (s *ContentService) requireOwnership(ctx context.Context, viewer models.ViewerContext, courseID string) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return access.CanMutateCourse(viewer, *course)
}

func (s *ContentService) loadOwnedModule(ctx context.Context, viewer models.ViewerContext, courseID, moduleID string) (*models.Module, error) {
	if err := s.requireOwnership(ctx, viewer, courseID); err != nil {
		return nil, err
	}
	module, err := s.modules.FindByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	if module.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found in course")
	}
	return module, nil
}

func (s *ContentService) loadOwnedLesson(ctx context.Context, viewer models.ViewerContext, courseID, moduleID, lessonID string) (*models.Lesson, error) {
	if _, err := s.loadOwnedModule(ctx, viewer, courseID, moduleID); err != nil {
		return nil, err
	}
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.ModuleID != moduleID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found in module")
	}
	return lesson, nil
}
