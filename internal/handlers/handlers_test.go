package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/i-snrdra/SWAG/internal/model"
	"github.com/i-snrdra/SWAG/internal/services"
	xhttp "github.com/i-snrdra/SWAG/pkg/http"
)

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Send(ctx context.Context, req model.SendRequest) (*services.SendResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendResult), args.Error(1)
}

func (m *MockMessageService) List(ctx context.Context) ([]*model.Message, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Message), args.Error(1)
}

type MockAutoReplyService struct {
	mock.Mock
}

func (m *MockAutoReplyService) Create(ctx context.Context, p model.AutoReplyCreateRequest) (*model.AutoReply, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AutoReply), args.Error(1)
}

func (m *MockAutoReplyService) List(ctx context.Context) ([]*model.AutoReply, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AutoReply), args.Error(1)
}

func (m *MockAutoReplyService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) Status() model.ConnectionStatus {
	args := m.Called()
	return args.Get(0).(model.ConnectionStatus)
}

func (m *MockStatusService) Groups(ctx context.Context) ([]model.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Group), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func formContext(path string, fields url.Values) *xhttp.RequestCtx {
	ctx := setupTestContext("POST", path, []byte(fields.Encode()))
	ctx.Request.Header.SetContentType("application/x-www-form-urlencoded")
	return ctx
}

func multipartContext(t *testing.T, fields map[string]string, filename, contentType string, content []byte) *xhttp.RequestCtx {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachment"; filename=%q`, filename))
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	ctx := setupTestContext("POST", "/api/send-message", buf.Bytes())
	ctx.Request.Header.SetContentType(w.FormDataContentType())
	return ctx
}

func decodeEnvelope(t *testing.T, ctx *xhttp.RequestCtx) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &e))
	return e
}

func TestMessageHandler_SendMessage(t *testing.T) {
	t.Run("text message", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc, t.TempDir())

		msg := "hello"
		svc.On("Send", mock.Anything, mock.MatchedBy(func(r model.SendRequest) bool {
			return r.Receiver == "15551234567" && r.Message == "hello" && !r.IsGroup && r.Attachment == nil
		})).Return(&services.SendResult{
			Record: &model.Message{ID: 1, Receiver: "15551234567", Message: &msg, Status: model.MessageStatusSent},
		}, nil)

		ctx := formContext("/api/send-message", url.Values{
			"receiver": {"15551234567"},
			"message":  {"hello"},
		})
		handler.SendMessage(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.True(t, e.Success)
		assert.NotNil(t, e.Data)

		svc.AssertExpectations(t)
	})

	t.Run("group flag", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc, t.TempDir())

		svc.On("Send", mock.Anything, mock.MatchedBy(func(r model.SendRequest) bool {
			return r.IsGroup
		})).Return(&services.SendResult{Record: &model.Message{ID: 2}}, nil)

		ctx := formContext("/api/send-message", url.Values{
			"receiver": {"120363000"},
			"message":  {"hi all"},
			"isGroup":  {"true"},
		})
		handler.SendMessage(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc, t.TempDir())

		svc.On("Send", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("receiver is required: %w", services.ErrValidation))

		ctx := formContext("/api/send-message", url.Values{"message": {"hello"}})
		handler.SendMessage(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.False(t, e.Success)
		assert.Contains(t, e.Error, "receiver is required")
	})

	t.Run("delivery error", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc, t.TempDir())

		svc.On("Send", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("socket closed: %w", services.ErrDelivery))

		ctx := formContext("/api/send-message", url.Values{
			"receiver": {"15551234567"},
			"message":  {"hello"},
		})
		handler.SendMessage(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.False(t, e.Success)
	})

	t.Run("attachment is staged and cleaned up", func(t *testing.T) {
		svc := new(MockMessageService)
		uploadDir := t.TempDir()
		handler := NewMessageHandler(svc, uploadDir)

		var stagedPath string
		svc.On("Send", mock.Anything, mock.MatchedBy(func(r model.SendRequest) bool {
			return r.Attachment != nil &&
				r.Attachment.Type == model.AttachmentImage &&
				r.Attachment.Filename == "photo.jpg" &&
				r.Attachment.Mimetype == "image/jpeg"
		})).Run(func(args mock.Arguments) {
			req := args.Get(1).(model.SendRequest)
			stagedPath = req.Attachment.Path

			// the staged copy must exist while the send runs
			data, err := os.ReadFile(stagedPath)
			require.NoError(t, err)
			assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
		}).Return(&services.SendResult{Record: &model.Message{ID: 3}}, nil)

		ctx := multipartContext(t, map[string]string{
			"receiver": "15551234567",
			"message":  "look",
		}, "photo.jpg", "image/jpeg", []byte{0xFF, 0xD8, 0xFF})
		handler.SendMessage(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)

		// gone after the handler returns
		_, err := os.Stat(stagedPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("vcf extension maps to vcard", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc, t.TempDir())

		svc.On("Send", mock.Anything, mock.MatchedBy(func(r model.SendRequest) bool {
			return r.Attachment != nil && r.Attachment.Type == model.AttachmentVCard
		})).Return(&services.SendResult{Record: &model.Message{ID: 4}}, nil)

		ctx := multipartContext(t, map[string]string{
			"receiver": "15551234567",
		}, "jane.vcf", "application/octet-stream", []byte("BEGIN:VCARD\nEND:VCARD\n"))
		handler.SendMessage(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})
}

func TestMessageHandler_ListMessages(t *testing.T) {
	t.Run("successful list", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc, t.TempDir())

		svc.On("List", mock.Anything).Return([]*model.Message{
			{ID: 2, Receiver: "15551234567", Status: model.MessageStatusSent},
			{ID: 1, Receiver: "15550001111", Status: model.MessageStatusFailed},
		}, nil)

		ctx := setupTestContext("GET", "/api/messages", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.True(t, e.Success)

		items, ok := e.Data.([]any)
		require.True(t, ok)
		assert.Len(t, items, 2)
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(MockMessageService)
		handler := NewMessageHandler(svc, t.TempDir())

		svc.On("List", mock.Anything).
			Return(nil, fmt.Errorf("db down: %w", services.ErrPersistence))

		ctx := setupTestContext("GET", "/api/messages", nil)
		handler.ListMessages(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
	})
}

func TestAutoReplyHandler_CreateAutoReply(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		svc := new(MockAutoReplyService)
		handler := NewAutoReplyHandler(svc)

		body, _ := json.Marshal(createAutoReplyRequest{Keyword: "help", Response: "Contact support"})
		svc.On("Create", mock.Anything, mock.MatchedBy(func(p model.AutoReplyCreateRequest) bool {
			return p.Keyword == "help" && p.Response == "Contact support"
		})).Return(&model.AutoReply{ID: 1, Keyword: "help", Response: "Contact support"}, nil)

		ctx := setupTestContext("POST", "/api/auto-reply", body)
		handler.CreateAutoReply(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.True(t, e.Success)

		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockAutoReplyService)
		handler := NewAutoReplyHandler(svc)

		ctx := setupTestContext("POST", "/api/auto-reply", []byte("not json"))
		handler.CreateAutoReply(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Create")
	})

	t.Run("missing keyword", func(t *testing.T) {
		svc := new(MockAutoReplyService)
		handler := NewAutoReplyHandler(svc)

		body, _ := json.Marshal(createAutoReplyRequest{Response: "x"})
		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("keyword is required: %w", services.ErrValidation))

		ctx := setupTestContext("POST", "/api/auto-reply", body)
		handler.CreateAutoReply(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.False(t, e.Success)
	})
}

func TestAutoReplyHandler_ListAutoReplies(t *testing.T) {
	svc := new(MockAutoReplyService)
	handler := NewAutoReplyHandler(svc)

	svc.On("List", mock.Anything).Return([]*model.AutoReply{
		{ID: 2, Keyword: "price", Response: "see site"},
		{ID: 1, Keyword: "help", Response: "contact support"},
	}, nil)

	ctx := setupTestContext("GET", "/api/auto-replies", nil)
	handler.ListAutoReplies(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	e := decodeEnvelope(t, ctx)
	assert.True(t, e.Success)
}

func TestAutoReplyHandler_DeleteAutoReply(t *testing.T) {
	t.Run("successful delete", func(t *testing.T) {
		svc := new(MockAutoReplyService)
		handler := NewAutoReplyHandler(svc)

		svc.On("Delete", mock.Anything, int64(42)).Return(nil)

		ctx := setupTestContext("DELETE", "/api/auto-reply/42", nil)
		ctx.SetUserValue("id", "42")
		handler.DeleteAutoReply(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.True(t, e.Success)
		svc.AssertExpectations(t)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		svc := new(MockAutoReplyService)
		handler := NewAutoReplyHandler(svc)

		ctx := setupTestContext("DELETE", "/api/auto-reply/abc", nil)
		ctx.SetUserValue("id", "abc")
		handler.DeleteAutoReply(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Delete")
	})
}

func TestStatusHandler(t *testing.T) {
	t.Run("status with pending QR", func(t *testing.T) {
		svc := new(MockStatusService)
		handler := NewStatusHandler(svc)

		svc.On("Status").Return(model.ConnectionStatus{IsConnected: false, QR: "2@abc"})

		ctx := setupTestContext("GET", "/api/status", nil)
		handler.GetStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		require.True(t, e.Success)

		data, ok := e.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, false, data["isConnected"])
		assert.Equal(t, "2@abc", data["qr"])
	})

	t.Run("groups", func(t *testing.T) {
		svc := new(MockStatusService)
		handler := NewStatusHandler(svc)

		svc.On("Groups", mock.Anything).Return([]model.Group{
			{ID: "123@g.us", Name: "Team", Participants: 4},
		}, nil)

		ctx := setupTestContext("GET", "/api/groups", nil)
		handler.ListGroups(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.True(t, e.Success)
	})

	t.Run("groups while disconnected", func(t *testing.T) {
		svc := new(MockStatusService)
		handler := NewStatusHandler(svc)

		svc.On("Groups", mock.Anything).
			Return(nil, fmt.Errorf("not connected: %w", services.ErrSession))

		ctx := setupTestContext("GET", "/api/groups", nil)
		handler.ListGroups(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.False(t, e.Success)
	})
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler()

	ctx := setupTestContext("GET", "/api/health", nil)
	handler.GetHealth(ctx)

	assert.Equal(t, "success", string(ctx.Response.Body()))
}

func TestHelperFunctions(t *testing.T) {
	t.Run("writeData", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		writeData(ctx, 200, map[string]string{"k": "v"})

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Header.Peek("Content-Type")), "application/json")

		e := decodeEnvelope(t, ctx)
		assert.True(t, e.Success)
	})

	t.Run("writeError", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		writeError(ctx, 500, "boom", errors.New("cause"))

		assert.Equal(t, 500, ctx.Response.StatusCode())
		e := decodeEnvelope(t, ctx)
		assert.False(t, e.Success)
		assert.Equal(t, "boom", e.Message)
		assert.Equal(t, "cause", e.Error)
	})

	t.Run("statusFor", func(t *testing.T) {
		assert.Equal(t, 400, statusFor(fmt.Errorf("x: %w", services.ErrValidation)))
		assert.Equal(t, 500, statusFor(fmt.Errorf("x: %w", services.ErrDelivery)))
		assert.Equal(t, 500, statusFor(fmt.Errorf("x: %w", services.ErrPersistence)))
		assert.Equal(t, 500, statusFor(errors.New("unknown")))
	})

	t.Run("attachmentType", func(t *testing.T) {
		assert.Equal(t, model.AttachmentImage, attachmentType("image/png", "a.png"))
		assert.Equal(t, model.AttachmentVideo, attachmentType("video/mp4", "a.mp4"))
		assert.Equal(t, model.AttachmentVCard, attachmentType("text/vcard", "a.txt"))
		assert.Equal(t, model.AttachmentVCard, attachmentType("application/octet-stream", "a.VCF"))
		assert.Equal(t, model.AttachmentDocument, attachmentType("application/pdf", "a.pdf"))
		assert.Equal(t, model.AttachmentDocument, attachmentType("", "report"))
	})
}
