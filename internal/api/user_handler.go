package api

import (
	"net/http"

	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listUsers(c *gin.Context) {
	users, pagination, err := h.accounts.ListUsers(c.Request.Context(), identityFrom(c),
		pageRequest(c, models.DefaultListLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"users": users, "pagination": pagination})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.accounts.GetUser(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"user": user})
}

func (h *Handler) updateUser(c *gin.Context) {
	var in service.AdminUserInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := h.accounts.UpdateUser(c.Request.Context(), identityFrom(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", gin.H{"user": user})
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.accounts.DeleteUser(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", nil)
}
