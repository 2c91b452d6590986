package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/uniplan-api/internal/service"
	"github.com/acadsys/uniplan-api/pkg/response"
)

// ExportHandler serves rendered history and timetable downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// HistoryCSV godoc
// @Summary Download a student's history as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Router /students/{id}/history/export [get]
func (h *ExportHandler) HistoryCSV(c *gin.Context) {
	payload, filename, err := h.exports.HistoryCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// TimetablePDF godoc
// @Summary Download a student's weekly timetable as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Router /students/{id}/timetable/export [get]
func (h *ExportHandler) TimetablePDF(c *gin.Context) {
	payload, filename, err := h.exports.TimetablePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
