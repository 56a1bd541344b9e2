package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"

	"github.com/i-snrdra/SWAG/internal/model"
	xhttp "github.com/i-snrdra/SWAG/pkg/http"
)

type AutoReplyService interface {
	Create(ctx context.Context, p model.AutoReplyCreateRequest) (*model.AutoReply, error)
	List(ctx context.Context) ([]*model.AutoReply, error)
	Delete(ctx context.Context, id int64) error
}

type AutoReplyHandler struct {
	svc AutoReplyService
}

func RegisterAutoReplyRoutes(e *router.Group, h *AutoReplyHandler) {
	e.POST("/auto-reply", h.CreateAutoReply)
	e.GET("/auto-replies", h.ListAutoReplies)
	e.DELETE("/auto-reply/{id}", h.DeleteAutoReply)
}

func NewAutoReplyHandler(autoReplyService AutoReplyService) *AutoReplyHandler {
	return &AutoReplyHandler{
		svc: autoReplyService,
	}
}

type createAutoReplyRequest struct {
	Keyword  string `json:"keyword"`
	Response string `json:"response"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *AutoReplyHandler) CreateAutoReply(ctx *xhttp.RequestCtx) {
	var req createAutoReplyRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON", err)
		return
	}

	rule, err := h.svc.Create(ctx, model.AutoReplyCreateRequest{
		Keyword:  req.Keyword,
		Response: req.Response,
	})
	if err != nil {
		writeError(ctx, statusFor(err), "failed to create auto-reply", err)
		return
	}
	writeSuccess(ctx, xhttp.StatusOK, "auto-reply created", rule)
}

func (h *AutoReplyHandler) ListAutoReplies(ctx *xhttp.RequestCtx) {
	rules, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, statusFor(err), "failed to list auto-replies", err)
		return
	}
	writeData(ctx, xhttp.StatusOK, rules)
}

func (h *AutoReplyHandler) DeleteAutoReply(ctx *xhttp.RequestCtx) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid auto-reply id", err)
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		writeError(ctx, statusFor(err), "failed to delete auto-reply", err)
		return
	}
	writeSuccess(ctx, xhttp.StatusOK, "auto-reply deleted", nil)
}
