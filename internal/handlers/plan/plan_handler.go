// internal/handlers/plan/plan_handler.go
package plan

import (
	"net/http"
	"strconv"

	"gym-admin-service/internal/domain/plan"
	"gym-admin-service/internal/pkg/response"
	service "gym-admin-service/internal/service/plan"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// ListPlans retrieves subscription plans with filters
func (h *PlanHandler) ListPlans(c *gin.Context) {
	var filters plan.PlanListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.planService.ListPlans(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list plans", err)
		return
	}

	response.Success(c, http.StatusOK, "plans retrieved", result)
}

// GetPlan retrieves a single subscription plan by ID
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}

	p, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		response.FromError(c, "plan not found", err)
		return
	}

	response.Success(c, http.StatusOK, "plan retrieved", p)
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req plan.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	p, err := h.planService.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create plan", err)
		return
	}

	response.Success(c, http.StatusCreated, "plan created successfully", p)
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}

	var req plan.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	p, err := h.planService.UpdatePlan(c.Request.Context(), planID, &req)
	if err != nil {
		response.FromError(c, "failed to update plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan updated successfully", p)
}

func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}

	if err := h.planService.ActivatePlan(c.Request.Context(), planID); err != nil {
		response.FromError(c, "failed to activate plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan activated successfully", nil)
}

func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}

	if err := h.planService.DeactivatePlan(c.Request.Context(), planID); err != nil {
		response.FromError(c, "failed to deactivate plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan deactivated successfully", nil)
}

func parsePlanID(c *gin.Context) (int64, bool) {
	planID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid plan ID", err)
		return 0, false
	}
	return planID, true
}
