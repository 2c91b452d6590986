package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/uniplan-api/internal/dto"
	"github.com/acadsys/uniplan-api/internal/service"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
	"github.com/acadsys/uniplan-api/pkg/response"
)

// PlanningHandler exposes the read-only planning endpoints.
type PlanningHandler struct {
	planning *service.PlanningService
	metrics  *service.MetricsService
}

// NewPlanningHandler constructs PlanningHandler.
func NewPlanningHandler(planning *service.PlanningService, metrics *service.MetricsService) *PlanningHandler {
	return &PlanningHandler{planning: planning, metrics: metrics}
}

// Simulate godoc
// @Summary Run a what-if enrollment simulation
// @Tags Planning
// @Accept json
// @Produce json
// @Param student_id query string true "Student ID"
// @Param payload body dto.SimulationRequest true "Candidate groups"
// @Success 200 {object} response.Envelope
// @Router /planning/simulate [post]
func (h *PlanningHandler) Simulate(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id is required"))
		return
	}
	var req dto.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.planning.Simulate(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveSimulation()
	response.JSON(c, http.StatusOK, report, nil)
}

// AvailableGroups godoc
// @Summary Partition a period's groups by eligibility for a student
// @Tags Planning
// @Produce json
// @Param student_id query string true "Student ID"
// @Param period_id query string true "Academic period ID"
// @Success 200 {object} response.Envelope
// @Router /planning/available-groups [get]
func (h *PlanningHandler) AvailableGroups(c *gin.Context) {
	studentID := c.Query("student_id")
	periodID := c.Query("period_id")
	if studentID == "" || periodID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id and period_id are required"))
		return
	}
	report, err := h.planning.AvailableGroups(c.Request.Context(), studentID, periodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// AvailableSubjects godoc
// @Summary List subjects a student could start now
// @Tags Planning
// @Produce json
// @Param student_id query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /planning/available-subjects [get]
func (h *PlanningHandler) AvailableSubjects(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id is required"))
		return
	}
	subjects, err := h.planning.AvailableSubjects(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
