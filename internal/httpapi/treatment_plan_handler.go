package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

func (h *Handler) createTreatmentPlan(c *gin.Context) error {
	var in usecase.CreateTreatmentPlanInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	plan, err := h.svc.TreatmentPlans.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeCreated(c, plan)
	return nil
}

func (h *Handler) listTreatmentPlans(c *gin.Context) error {
	var in usecase.TreatmentPlanListInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	result, err := h.svc.TreatmentPlans.List(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, result)
	return nil
}

func (h *Handler) getTreatmentPlan(c *gin.Context) error {
	plan, err := h.svc.TreatmentPlans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	writeOK(c, plan)
	return nil
}

func (h *Handler) updateTreatmentPlan(c *gin.Context) error {
	var in usecase.UpdateTreatmentPlanInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	plan, err := h.svc.TreatmentPlans.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	writeOK(c, plan)
	return nil
}

func (h *Handler) deleteTreatmentPlan(c *gin.Context) error {
	if err := h.svc.TreatmentPlans.Delete(c.Request.Context(), c.Param("id")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}
