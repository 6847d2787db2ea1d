package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jadhavharshh/ConnectX-sub001/internal/middleware"
	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
)

func viewerFromContext(c *gin.Context) models.ViewerContext {
	value, exists := c.Get(middleware.ContextViewerKey)
	if !exists {
		return models.StudentContext("", "", "")
	}
	viewer, ok := value.(models.ViewerContext)
	if !ok {
		return models.StudentContext("", "", "")
	}
	return viewer
}
