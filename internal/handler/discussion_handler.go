package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	"github.com/jadhavharshh/ConnectX-sub001/internal/service"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/response"
)

// DiscussionHandler exposes lesson discussion endpoints.
type DiscussionHandler struct {
	service *service.DiscussionService
}

// NewDiscussionHandler constructs a discussion handler.
func NewDiscussionHandler(svc *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{service: svc}
}

// ListForCourse godoc
// @Summary List discussions in a course
// @Tags Discussions
// @Produce json
// @Param id path string true "Course ID"
// @Param status query string false "open, answered or closed"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/discussions [get]
func (h *DiscussionHandler) ListForCourse(c *gin.Context) {
	status := models.DiscussionStatus(c.Query("status"))
	details, err := h.service.ListForCourse(c.Request.Context(), viewerFromContext(c), c.Param("id"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// ListForLesson godoc
// @Summary List discussions on a lesson
// @Tags Discussions
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId}/discussions [get]
func (h *DiscussionHandler) ListForLesson(c *gin.Context) {
	details, err := h.service.ListForLesson(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Ask godoc
// @Summary Open a discussion on a lesson
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.AskDiscussionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId}/discussions [post]
func (h *DiscussionHandler) Ask(c *gin.Context) {
	var req service.AskDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	discussion, err := h.service.Ask(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, discussion)
}

// Reply godoc
// @Summary Reply to a discussion
// @Tags Discussions
// @Accept json
// @Produce json
// @Param discussionId path string true "Discussion ID"
// @Param payload body service.ReplyRequest true "Reply payload"
// @Success 200 {object} response.Envelope
// @Router /discussions/{discussionId}/reply [post]
func (h *DiscussionHandler) Reply(c *gin.Context) {
	var req service.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	discussion, message, err := h.service.Reply(c.Request.Context(), viewerFromContext(c), c.Param("discussionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"discussion": discussion, "message": message}, nil)
}

// Close godoc
// @Summary Close a discussion to further replies
// @Tags Discussions
// @Produce json
// @Param discussionId path string true "Discussion ID"
// @Success 200 {object} response.Envelope
// @Router /discussions/{discussionId}/close [post]
func (h *DiscussionHandler) Close(c *gin.Context) {
	discussion, err := h.service.Close(c.Request.Context(), viewerFromContext(c), c.Param("discussionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, discussion, nil)
}
