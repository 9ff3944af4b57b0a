package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type requestPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) register(c *gin.Context) error {
	var in usecase.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	result, err := h.svc.Auth.Register(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeCreated(c, result)
	return nil
}

func (h *Handler) login(c *gin.Context) error {
	var in usecase.LoginInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	result, err := h.svc.Auth.Login(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, result)
	return nil
}

func (h *Handler) logout(c *gin.Context) error {
	var in refreshTokenRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := h.svc.Auth.Logout(c.Request.Context(), principal(c).UserID, in.RefreshToken); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (h *Handler) refreshToken(c *gin.Context) error {
	var in refreshTokenRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	result, err := h.svc.Auth.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		return err
	}
	writeOK(c, result)
	return nil
}

func (h *Handler) confirm(c *gin.Context) error {
	user, err := h.svc.Auth.Confirm(c.Request.Context(), principal(c).UserID)
	if err != nil {
		return err
	}
	writeOK(c, user)
	return nil
}

// requestPassword always answers 202 so callers cannot probe for accounts.
func (h *Handler) requestPassword(c *gin.Context) error {
	var in requestPasswordRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	h.svc.Auth.RequestPassword(c.Request.Context(), in.Email)
	c.Status(http.StatusAccepted)
	return nil
}
