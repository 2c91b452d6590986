package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/uniplan-api/internal/dto"
	"github.com/acadsys/uniplan-api/internal/models"
	"github.com/acadsys/uniplan-api/internal/service"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
	"github.com/acadsys/uniplan-api/pkg/response"
)

// GroupHandler exposes the group and period endpoints.
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler constructs GroupHandler.
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List godoc
// @Summary List groups of a period
// @Tags Groups
// @Produce json
// @Param period_id query string true "Academic period ID"
// @Param subject_id query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	periodID := c.Query("period_id")
	if periodID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period_id is required"))
		return
	}
	var groups []models.Group
	var err error
	if subjectID := c.Query("subject_id"); subjectID != "" {
		groups, err = h.groups.ListBySubject(c.Request.Context(), subjectID, periodID)
	} else {
		groups, err = h.groups.ListByPeriod(c.Request.Context(), periodID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get a group with its schedules
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Open a new group section
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// AddSchedule godoc
// @Summary Add a time slot to a group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/schedules [post]
func (h *GroupHandler) AddSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.AddSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Deactivate godoc
// @Summary Retire a group
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 204
// @Router /groups/{id} [delete]
func (h *GroupHandler) Deactivate(c *gin.Context) {
	if err := h.groups.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPeriods godoc
// @Summary List academic periods
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *GroupHandler) ListPeriods(c *gin.Context) {
	periods, err := h.groups.ListPeriods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// CurrentPeriod godoc
// @Summary Get the current academic period
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods/current [get]
func (h *GroupHandler) CurrentPeriod(c *gin.Context) {
	period, err := h.groups.CurrentPeriod(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// CreatePeriod godoc
// @Summary Register an academic period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body models.AcademicPeriod true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /periods [post]
func (h *GroupHandler) CreatePeriod(c *gin.Context) {
	var period models.AcademicPeriod
	if err := c.ShouldBindJSON(&period); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.groups.CreatePeriod(c.Request.Context(), &period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}
