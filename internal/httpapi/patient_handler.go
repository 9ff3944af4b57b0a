package httpapi

import (
	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

type assignDoctorRequest struct {
	DoctorID string `json:"doctorId"`
}

// listPatients is a POST so the filter can travel in the body. It answers
// 200, not 201.
func (h *Handler) listPatients(c *gin.Context) error {
	var in usecase.PatientListInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	result, err := h.svc.Patients.List(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, result)
	return nil
}

func (h *Handler) createPatient(c *gin.Context) error {
	var in usecase.CreatePatientInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	patient, err := h.svc.Patients.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeCreated(c, patient)
	return nil
}

func (h *Handler) getPatient(c *gin.Context) error {
	patient, err := h.svc.Patients.Get(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	writeOK(c, patient)
	return nil
}

func (h *Handler) updatePatient(c *gin.Context) error {
	var in usecase.UpdatePatientInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	patient, err := h.svc.Patients.UpdateWithCase(c.Request.Context(), c.Param("patientId"), in)
	if err != nil {
		return err
	}
	writeOK(c, patient)
	return nil
}

func (h *Handler) assignPatientDoctor(c *gin.Context) error {
	var in assignDoctorRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	cs, err := h.svc.Patients.AssignDoctor(c.Request.Context(), c.Param("patientId"), c.Param("caseId"), in.DoctorID)
	if err != nil {
		return err
	}
	writeOK(c, cs)
	return nil
}

func (h *Handler) addPatientTreatmentPlan(c *gin.Context) error {
	var in usecase.PatientTreatmentPlanInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	plan, err := h.svc.Patients.AddTreatmentPlan(c.Request.Context(), c.Param("patientId"), c.Param("caseId"), in)
	if err != nil {
		return err
	}
	writeCreated(c, plan)
	return nil
}
