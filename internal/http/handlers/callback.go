package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anggiadiputra/donasiku-sub000/internal/http/middleware"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/payments"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/apperr"
)

const maxCallbackBody = 64 << 10

type CallbackProcessor interface {
	Handle(ctx context.Context, provider string, ev payments.CallbackEvent) (payments.CallbackOutcome, error)
}

type CallbackHandler struct {
	Logger    *slog.Logger
	Gateway   payments.Gateway
	Callbacks CallbackProcessor
}

func NewCallbackHandler(logger *slog.Logger, gw payments.Gateway, svc CallbackProcessor) *CallbackHandler {
	return &CallbackHandler{Logger: logger, Gateway: gw, Callbacks: svc}
}

// POST /api/payments/callback
// Any non-2xx answer makes the gateway retry, so only forged or malformed bodies get 400.
func (h *CallbackHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Callback tidak valid", nil))
		return
	}

	ev, err := h.Gateway.VerifyAndParseCallback(c.Request.Header, body)
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "gateway callback rejected",
			"request_id", middleware.GetRequestID(c),
			"client_ip", c.ClientIP(),
			"err", err,
		)
		middleware.Fail(c, apperr.InvalidErr("Callback tidak valid", nil))
		return
	}

	out, err := h.Callbacks.Handle(c.Request.Context(), h.Gateway.Name(), ev)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  out.Status,
		"changed": out.Changed,
	})
}
