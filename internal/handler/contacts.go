package handlers

import (
	"GuardianLink/pkg/middleware"
	"GuardianLink/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type AnonymityRequest struct {
	Anonymous bool `json:"anonymous"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	response.Success(c, "success", h.Contacts.List())
}

func (h *Handlers) handleAddContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	contact, err := h.Contacts.Add(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "contact added", contact)
}

func (h *Handlers) handleUpdateContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	contact, err := h.Contacts.Update(c.Request.Context(), c.Param("id"), req.Name, req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "contact updated", contact)
}

func (h *Handlers) handleDeleteContact(c *gin.Context) {
	if err := h.Contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "contact deleted", nil)
}

func (h *Handlers) handleSettings(c *gin.Context) {
	lang := h.Config.Language
	if h.I18n != nil {
		lang = middleware.Lang(c, h.I18n.DefaultLang())
	}
	response.Success(c, "success", gin.H{"settings": h.Settings.View(), "lang": lang})
}

func (h *Handlers) handleSetAnonymity(c *gin.Context) {
	var req AnonymityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	h.Settings.SetAnonymous(c.Request.Context(), req.Anonymous)
	response.Success(c, "settings updated", h.Settings.View())
}

func (h *Handlers) handleSetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if _, err := h.Settings.SetStatus(c.Request.Context(), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "settings updated", h.Settings.View())
}
