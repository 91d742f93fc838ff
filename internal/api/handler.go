package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RichardoC/pad-chat/internal/chat"
	"github.com/RichardoC/pad-chat/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	chat   *chat.Service
	logger *zap.Logger
}

func NewHandler(chatService *chat.Service, logger *zap.Logger) *Handler {
	return &Handler{
		chat:   chatService,
		logger: logger,
	}
}

type conversationSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type messageView struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	IsImage   bool      `json:"is_image"`
	ModelUsed string    `json:"model_used"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessageView(m *models.Message) messageView {
	return messageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		IsImage:   m.IsImage,
		ModelUsed: m.ModelUsed,
		CreatedAt: m.CreatedAt,
	}
}

type UpdateTitleRequest struct {
	Title *string `json:"title"`
}

// idParam accepts a conversation id sent either as a JSON number or as a
// numeric string.
type idParam int64

func (p *idParam) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*p = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid conversation id %s", b)
	}
	*p = idParam(n)
	return nil
}

// SendMessageRequest is the body of POST /api/messages/send/. A missing
// response_type means a text reply.
type SendMessageRequest struct {
	ConversationID idParam `json:"conversation_id"`
	Message        string  `json:"message"`
	ResponseType   string  `json:"response_type"`
}

type SendMessageResponse struct {
	Success           bool        `json:"success"`
	Message           messageView `json:"message"`
	ConversationTitle string      `json:"conversation_title"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Title   string `json:"title,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type settingsResponse struct {
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	ImageModel   string `json:"image_model"`
}

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chat.CreateConversation(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to create conversation")
		return
	}

	writeJSON(w, http.StatusOK, conversationSummary{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
	})
}

func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := h.chat.DeleteConversation(r.Context(), convID); err != nil {
		h.fail(w, r, err, "Failed to delete conversation")
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) UpdateConversationTitle(w http.ResponseWriter, r *http.Request) {
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req UpdateTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	title, err := h.chat.RenameConversation(r.Context(), convID, req.Title)
	if err != nil {
		h.fail(w, r, err, "Failed to update conversation")
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Title: title})
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	messages, err := h.chat.ListMessages(r.Context(), convID)
	if err != nil {
		h.fail(w, r, err, "Failed to get messages")
		return
	}

	views := make([]messageView, 0, len(messages))
	for i := range messages {
		views = append(views, newMessageView(&messages[i]))
	}

	h.logger.Debug("Retrieved messages",
		zap.Int64("conversation_id", convID),
		zap.Int("count", len(views)))

	writeJSON(w, http.StatusOK, map[string][]messageView{"messages": views})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ResponseType == "" {
		req.ResponseType = chat.ResponseText
	}

	res, err := h.chat.SendMessage(r.Context(), chat.SendRequest{
		ConversationID: int64(req.ConversationID),
		Message:        req.Message,
		ResponseType:   req.ResponseType,
	})
	if err != nil {
		h.fail(w, r, err, "Failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, SendMessageResponse{
		Success:           true,
		Message:           newMessageView(res.Message),
		ConversationTitle: res.ConversationTitle,
	})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	var patch chat.SettingsPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	if _, err := h.chat.UpdateSettings(r.Context(), convID, patch); err != nil {
		h.fail(w, r, err, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	convID, ok := conversationID(w, r)
	if !ok {
		return
	}

	s, err := h.chat.GetSettings(r.Context(), convID)
	if err != nil {
		h.fail(w, r, err, "Failed to get settings")
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		Model:        s.Model,
		SystemPrompt: s.SystemPrompt,
		ImageModel:   s.ImageModel,
	})
}

// fail maps service errors onto status codes. Generation failures carry
// their own message; anything unexpected is logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var genErr *chat.GenerationError
	switch {
	case errors.Is(err, chat.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Conversation not found"})
	case errors.As(err, &genErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: genErr.Error()})
	default:
		h.logger.Error(logMsg,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(requestIDHeader)))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// conversationID parses the {id} path segment. Anything that is not an
// integer cannot name a conversation, so it is a 404.
func conversationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Conversation not found"})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
