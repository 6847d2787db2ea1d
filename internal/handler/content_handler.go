package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jadhavharshh/ConnectX-sub001/internal/service"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/response"
)

// ContentHandler exposes module and lesson management inside a course.
type ContentHandler struct {
	service *service.ContentService
}

// NewContentHandler constructs a content handler.
func NewContentHandler(svc *service.ContentService) *ContentHandler {
	return &ContentHandler{service: svc}
}

// AddModule godoc
// @Summary Add a module to a course
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.AddModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/modules [post]
func (h *ContentHandler) AddModule(c *gin.Context) {
	var req service.AddModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.service.AddModule(c.Request.Context(), viewerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// UpdateModule godoc
// @Summary Update a module
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param moduleId path string true "Module ID"
// @Param payload body service.UpdateModuleRequest true "Module payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/modules/{moduleId} [patch]
func (h *ContentHandler) UpdateModule(c *gin.Context) {
	var req service.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.service.UpdateModule(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("moduleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// DeleteModule godoc
// @Summary Delete a module and its lessons
// @Tags Content
// @Param id path string true "Course ID"
// @Param moduleId path string true "Module ID"
// @Success 204
// @Router /courses/{id}/modules/{moduleId} [delete]
func (h *ContentHandler) DeleteModule(c *gin.Context) {
	if err := h.service.DeleteModule(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("moduleId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddLesson godoc
// @Summary Add a lesson to a module
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param moduleId path string true "Module ID"
// @Param payload body service.AddLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/modules/{moduleId}/lessons [post]
func (h *ContentHandler) AddLesson(c *gin.Context) {
	var req service.AddLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.AddLesson(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("moduleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// UpdateLesson godoc
// @Summary Update a lesson
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param moduleId path string true "Module ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/modules/{moduleId}/lessons/{lessonId} [patch]
func (h *ContentHandler) UpdateLesson(c *gin.Context) {
	var req service.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.UpdateLesson(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("moduleId"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags Content
// @Param id path string true "Course ID"
// @Param moduleId path string true "Module ID"
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Router /courses/{id}/modules/{moduleId}/lessons/{lessonId} [delete]
func (h *ContentHandler) DeleteLesson(c *gin.Context) {
	if err := h.service.DeleteLesson(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("moduleId"), c.Param("lessonId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
