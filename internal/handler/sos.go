package handlers

import (
	"errors"
	"io"

	"GuardianLink/internal/emitter"
	"GuardianLink/internal/models"
	"GuardianLink/internal/safety"
	"GuardianLink/pkg/middleware"
	"GuardianLink/pkg/response"

	"github.com/gin-gonic/gin"
)

type SessionView struct {
	Session      emitter.Session       `json:"session"`
	Summary      string                `json:"summary"`
	Log          []string              `json:"log"`
	LastPacket   *models.SOSPacket     `json:"lastPacket,omitempty"`
	AlertSending bool                  `json:"alertSending"`
	Disguise     *safety.DisguiseState `json:"disguise,omitempty"`
}

type AlertRequest struct {
	Silent bool `json:"silent"`
}

// bindOptional 允许空请求体
func bindOptional(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handlers) formatter(c *gin.Context) safety.Formatter {
	if h.I18n == nil {
		return safety.NewFormatter(nil)
	}
	return safety.NewFormatter(h.I18n.Translator(middleware.Lang(c, h.I18n.DefaultLang())))
}

func (h *Handlers) sessionView(c *gin.Context, s emitter.Session) SessionView {
	v := SessionView{Session: s, Summary: h.formatter(c).Summary(s.Config), Log: []string{}}
	if h.StatusLog != nil {
		v.Log = h.StatusLog.Entries()
	}
	if h.Packets != nil {
		if p, ok := h.Packets.Last(); ok {
			v.LastPacket = &p
		}
	}
	if h.Alerter != nil {
		v.AlertSending = h.Alerter.Sending()
	}
	if h.Disguise != nil {
		st := h.Disguise.State()
		v.Disguise = &st
	}
	return v
}

func (h *Handlers) handleSession(c *gin.Context) {
	response.Success(c, "success", h.sessionView(c, h.Emitter.Session()))
}

// handleActivate 请求体为空时沿用已保存的配置
func (h *Handlers) handleActivate(c *gin.Context) {
	cfg := h.Emitter.Session().Config
	if c.Request.ContentLength != 0 {
		cfg = emitter.Config{}
		if err := bindOptional(c, &cfg); err != nil {
			response.Fail(c, "invalid request", nil)
			return
		}
	}
	s := h.Emitter.Activate(c.Request.Context(), cfg)
	response.Success(c, "sos activated", h.sessionView(c, s))
}

func (h *Handlers) handleDeactivate(c *gin.Context) {
	s := h.Emitter.Deactivate(c.Request.Context())
	response.Success(c, "sos deactivated", h.sessionView(c, s))
}

func (h *Handlers) handleConfigure(c *gin.Context) {
	var cfg emitter.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if err := h.Emitter.Configure(cfg); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "config updated", h.sessionView(c, h.Emitter.Session()))
}

func (h *Handlers) handleAlert(c *gin.Context) {
	var req AlertRequest
	if err := bindOptional(c, &req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if err := h.Alerter.Trigger(c.Request.Context(), req.Silent); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "sending", gin.H{"sending": true, "silent": req.Silent})
}

func (h *Handlers) handleOpenDisguise(c *gin.Context) {
	response.Success(c, "disguise opened", h.Disguise.Open(c.Request.Context()))
}

func (h *Handlers) handleCloseDisguise(c *gin.Context) {
	response.Success(c, "disguise closed", h.Disguise.Close(c.Request.Context()))
}
