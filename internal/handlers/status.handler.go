package handlers

import (
	"context"

	"github.com/fasthttp/router"

	"github.com/i-snrdra/SWAG/internal/model"
	xhttp "github.com/i-snrdra/SWAG/pkg/http"
)

type StatusService interface {
	Status() model.ConnectionStatus
	Groups(ctx context.Context) ([]model.Group, error)
}

type StatusHandler struct {
	svc StatusService
}

func RegisterStatusRoutes(e *router.Group, h *StatusHandler) {
	e.GET("/status", h.GetStatus)
	e.GET("/groups", h.ListGroups)
}

func NewStatusHandler(statusService StatusService) *StatusHandler {
	return &StatusHandler{
		svc: statusService,
	}
}

/* --------------------------------- Routes ----------------------------------- */

func (h *StatusHandler) GetStatus(ctx *xhttp.RequestCtx) {
	writeData(ctx, xhttp.StatusOK, h.svc.Status())
}

func (h *StatusHandler) ListGroups(ctx *xhttp.RequestCtx) {
	groups, err := h.svc.Groups(ctx)
	if err != nil {
		writeError(ctx, statusFor(err), "failed to list groups", err)
		return
	}
	writeData(ctx, xhttp.StatusOK, groups)
}
