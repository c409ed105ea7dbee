package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/course-import/internal/service"
)

type Handler interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type ImportHandler struct {
	service service.ImportService
}

func NewImportHandler(service service.ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/scrape-course", h.ImportCourse)
	router.POST("/import", h.ImportCourse)
	router.GET("/imports", h.RecentImports)
}
