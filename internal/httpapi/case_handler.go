package httpapi

import (
	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

type caseTreatmentPlanRequest struct {
	MedicationCost *float64 `json:"medicationCost"`
}

func (h *Handler) createCase(c *gin.Context) error {
	var in usecase.CreateCaseInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	cs, err := h.svc.Cases.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeCreated(c, cs)
	return nil
}

func (h *Handler) listCases(c *gin.Context) error {
	cases, err := h.svc.Cases.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		return err
	}
	writeOK(c, cases)
	return nil
}

func (h *Handler) getCase(c *gin.Context) error {
	cs, err := h.svc.Cases.Get(c.Request.Context(), c.Param("caseId"))
	if err != nil {
		return err
	}
	writeOK(c, cs)
	return nil
}

func (h *Handler) updateCase(c *gin.Context) error {
	var in usecase.UpdateCaseInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	cs, err := h.svc.Cases.Update(c.Request.Context(), c.Param("caseId"), in)
	if err != nil {
		return err
	}
	writeOK(c, cs)
	return nil
}

func (h *Handler) assignCaseDoctor(c *gin.Context) error {
	var in assignDoctorRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	cs, err := h.svc.Cases.AssignDoctor(c.Request.Context(), c.Param("caseId"), in.DoctorID)
	if err != nil {
		return err
	}
	writeOK(c, cs)
	return nil
}

func (h *Handler) updateCaseTreatmentPlan(c *gin.Context) error {
	var in caseTreatmentPlanRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if in.MedicationCost == nil {
		return apperrors.NewFieldError("medicationCost is required")
	}
	cs, err := h.svc.Cases.UpdateTreatmentPlan(c.Request.Context(), c.Param("caseId"), *in.MedicationCost)
	if err != nil {
		return err
	}
	writeOK(c, cs)
	return nil
}

func (h *Handler) approveCaseCost(c *gin.Context) error {
	cs, err := h.svc.Cases.ApproveCost(c.Request.Context(), c.Param("caseId"))
	if err != nil {
		return err
	}
	writeOK(c, cs)
	return nil
}

func (h *Handler) completeCase(c *gin.Context) error {
	cs, err := h.svc.Cases.Complete(c.Request.Context(), c.Param("caseId"))
	if err != nil {
		return err
	}
	writeOK(c, cs)
	return nil
}
