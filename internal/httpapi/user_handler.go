package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

func (h *Handler) listUsers(c *gin.Context) error {
	var in usecase.UserListInput
	if err := bindQuery(c, &in); err != nil {
		return err
	}
	result, err := h.svc.Users.List(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeOK(c, result)
	return nil
}

func (h *Handler) createUser(c *gin.Context) error {
	var in usecase.CreateUserInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	user, err := h.svc.Users.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	writeCreated(c, user)
	return nil
}

func (h *Handler) profile(c *gin.Context) error {
	user, err := h.svc.Users.Get(c.Request.Context(), principal(c).UserID)
	if err != nil {
		return err
	}
	writeOK(c, user)
	return nil
}

func (h *Handler) getUser(c *gin.Context) error {
	user, err := h.svc.Users.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	writeOK(c, user)
	return nil
}

func (h *Handler) updateUser(c *gin.Context) error {
	var in usecase.UpdateUserInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	user, err := h.svc.Users.Update(c.Request.Context(), c.Param("userId"), in)
	if err != nil {
		return err
	}
	writeOK(c, user)
	return nil
}

func (h *Handler) deleteUser(c *gin.Context) error {
	if err := h.svc.Users.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}
