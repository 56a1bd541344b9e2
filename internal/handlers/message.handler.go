package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/i-snrdra/SWAG/internal/model"
	"github.com/i-snrdra/SWAG/internal/services"
	xhttp "github.com/i-snrdra/SWAG/pkg/http"
	"github.com/i-snrdra/SWAG/pkg/logger"
)

type MessageService interface {
	Send(ctx context.Context, req model.SendRequest) (*services.SendResult, error)
	List(ctx context.Context) ([]*model.Message, error)
}

type MessageHandler struct {
	svc       MessageService
	uploadDir string
}

func RegisterMessageRoutes(e *router.Group, h *MessageHandler) {
	e.POST("/send-message", h.SendMessage)
	e.GET("/messages", h.ListMessages)
}

func NewMessageHandler(messageService MessageService, uploadDir string) *MessageHandler {
	return &MessageHandler{
		svc:       messageService,
		uploadDir: uploadDir,
	}
}

/* --------------------------------- Routes ----------------------------------- */

// SendMessage accepts a multipart form: receiver (required), message,
// isGroup and an optional file part named "attachment". The staged copy
// of the upload is removed once the send attempt finishes either way.
func (h *MessageHandler) SendMessage(ctx *xhttp.RequestCtx) {
	req := model.SendRequest{
		Receiver: formValue(ctx, "receiver"),
		Message:  formValue(ctx, "message"),
		IsGroup:  formBool(ctx, "isGroup"),
	}

	fh, err := ctx.FormFile("attachment")
	if err == nil && fh != nil {
		att, stageErr := h.stageAttachment(fh)
		if stageErr != nil {
			writeError(ctx, xhttp.StatusInternalServerError, "failed to store attachment", stageErr)
			return
		}
		defer func() {
			if err := os.Remove(att.Path); err != nil {
				logger.Warn("failed to remove staged attachment", "path", att.Path, "error", err)
			}
		}()
		req.Attachment = att
	}

	res, err := h.svc.Send(ctx, req)
	if err != nil {
		writeError(ctx, statusFor(err), "failed to send message", err)
		return
	}

	writeSuccess(ctx, xhttp.StatusOK, "message sent", res.Record)
}

func (h *MessageHandler) ListMessages(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, statusFor(err), "failed to list messages", err)
		return
	}
	writeData(ctx, xhttp.StatusOK, items)
}

// stageAttachment copies the upload under the configured directory with
// a uuid filename so concurrent requests never collide.
func (h *MessageHandler) stageAttachment(fh *multipart.FileHeader) (*model.Attachment, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(h.uploadDir, uuid.NewString()+filepath.Ext(fh.Filename))
	if err := fasthttp.SaveMultipartFile(fh, path); err != nil {
		return nil, err
	}

	mimetype := fh.Header.Get("Content-Type")
	return &model.Attachment{
		Type:     attachmentType(mimetype, fh.Filename),
		Path:     path,
		Filename: fh.Filename,
		Mimetype: mimetype,
	}, nil
}

// attachmentType picks the outbound media kind from the declared
// mimetype, falling back to the filename extension. Anything
// unrecognized goes out as a document.
func attachmentType(mimetype, filename string) model.AttachmentType {
	mt := strings.ToLower(mimetype)
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case strings.HasPrefix(mt, "image/"):
		return model.AttachmentImage
	case strings.HasPrefix(mt, "video/"):
		return model.AttachmentVideo
	case strings.Contains(mt, "vcard") || ext == ".vcf":
		return model.AttachmentVCard
	default:
		return model.AttachmentDocument
	}
}

/* -------------------------------- Helpers ----------------------------------- */

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeData(ctx *xhttp.RequestCtx, status int, data any) {
	writeJSON(ctx, status, envelope{Success: true, Data: data})
}

func writeSuccess(ctx *xhttp.RequestCtx, status int, msg string, data any) {
	writeJSON(ctx, status, envelope{Success: true, Message: msg, Data: data})
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string, err error) {
	e := envelope{Success: false, Message: msg}
	if err != nil {
		e.Error = err.Error()
	}
	writeJSON(ctx, status, e)
}

// statusFor maps the service error taxonomy onto HTTP codes: caller
// mistakes are 400, everything downstream is 500.
func statusFor(err error) int {
	if errors.Is(err, services.ErrValidation) {
		return xhttp.StatusBadRequest
	}
	return xhttp.StatusInternalServerError
}

func formValue(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.FormValue(key))
}

func formBool(ctx *xhttp.RequestCtx, key string) bool {
	v := strings.ToLower(strings.TrimSpace(formValue(ctx, key)))
	return v == "true" || v == "1" || v == "yes"
}
