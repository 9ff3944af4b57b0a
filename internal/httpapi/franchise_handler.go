package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
)

type qrCodeRequest struct {
	FranchiseID string `json:"franchiseId" validate:"required,uuid"`
}

func (h *Handler) createFranchise(c *gin.Context) error {
	var in usecase.FranchiseInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	franchise, err := h.svc.Franchises.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeCreated(c, franchise)
	return nil
}

func (h *Handler) listFranchises(c *gin.Context) error {
	var in usecase.FranchiseListInput
	if err := bindQuery(c, &in); err != nil {
		return err
	}
	result, err := h.svc.Franchises.List(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, result)
	return nil
}

func (h *Handler) getFranchise(c *gin.Context) error {
	franchise, err := h.svc.Franchises.Get(c.Request.Context(), c.Param("franchiseId"))
	if err != nil {
		return err
	}
	writeOK(c, franchise)
	return nil
}

func (h *Handler) updateFranchise(c *gin.Context) error {
	var in usecase.FranchiseInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	franchise, err := h.svc.Franchises.Update(c.Request.Context(), c.Param("franchiseId"), in)
	if err != nil {
		return err
	}
	writeOK(c, franchise)
	return nil
}

func (h *Handler) deactivateFranchise(c *gin.Context) error {
	if err := h.svc.Franchises.Deactivate(c.Request.Context(), c.Param("franchiseId")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (h *Handler) createQRCode(c *gin.Context) error {
	var in qrCodeRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := validator.Validate(in); err != nil {
		return err
	}
	qr, err := h.svc.QRCodes.Create(c.Request.Context(), in.FranchiseID)
	if err != nil {
		return err
	}
	writeCreated(c, qr)
	return nil
}

func (h *Handler) listQRCodes(c *gin.Context) error {
	qrs, err := h.svc.QRCodes.List(c.Request.Context())
	if err != nil {
		return err
	}
	writeOK(c, qrs)
	return nil
}

func (h *Handler) getQRCode(c *gin.Context) error {
	qr, err := h.svc.QRCodes.Get(c.Request.Context(), c.Param("qrcodeId"))
	if err != nil {
		return err
	}
	writeOK(c, qr)
	return nil
}

func (h *Handler) getQRCodeByCode(c *gin.Context) error {
	qr, err := h.svc.QRCodes.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		return err
	}
	writeOK(c, qr)
	return nil
}

func (h *Handler) updateQRCode(c *gin.Context) error {
	var in qrCodeRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := validator.Validate(in); err != nil {
		return err
	}
	qr, err := h.svc.QRCodes.Update(c.Request.Context(), c.Param("qrcodeId"), in.FranchiseID)
	if err != nil {
		return err
	}
	writeOK(c, qr)
	return nil
}

func (h *Handler) deactivateQRCode(c *gin.Context) error {
	if err := h.svc.QRCodes.Deactivate(c.Request.Context(), c.Param("qrcodeId")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}
