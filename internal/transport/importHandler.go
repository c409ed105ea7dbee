package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/course-import/internal/entity"
	"github.com/ds124wfegd/course-import/internal/service"
)

func (h *ImportHandler) ImportCourse(c *gin.Context) {
	var req entity.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request"})
		return
	}

	draft, err := h.service.Import(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid URL"})
		case errors.Is(err, entity.ErrPageFetch):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Failed to fetch page", Details: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to import course", Details: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *ImportHandler) RecentImports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid limit"})
		return
	}

	events, err := h.service.RecentImports(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, service.ErrHistoryDisabled) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Import history is disabled"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get imports", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, events)
}
