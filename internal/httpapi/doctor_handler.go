package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

func (h *Handler) listDoctors(c *gin.Context) error {
	var in usecase.DoctorListInput
	if err := bindQuery(c, &in); err != nil {
		return err
	}
	result, err := h.svc.Doctors.List(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, result)
	return nil
}

func (h *Handler) createDoctor(c *gin.Context) error {
	var in usecase.CreateDoctorInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	doctor, err := h.svc.Doctors.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeCreated(c, doctor)
	return nil
}

func (h *Handler) getDoctor(c *gin.Context) error {
	doctor, err := h.svc.Doctors.Get(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		return err
	}
	writeOK(c, doctor)
	return nil
}

func (h *Handler) updateDoctor(c *gin.Context) error {
	var in usecase.UpdateDoctorInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	doctor, err := h.svc.Doctors.Update(c.Request.Context(), c.Param("doctorId"), in)
	if err != nil {
		return err
	}
	writeOK(c, doctor)
	return nil
}

func (h *Handler) deactivateDoctor(c *gin.Context) error {
	if err := h.svc.Doctors.Deactivate(c.Request.Context(), c.Param("doctorId")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (h *Handler) deleteDoctor(c *gin.Context) error {
	if err := h.svc.Doctors.Delete(c.Request.Context(), c.Param("doctorId")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}
