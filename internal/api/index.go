package api

import (
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Index renders the chat page with the conversation list inlined.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chat.ListConversations(r.Context())
	if err != nil {
		h.logger.Error("Failed to get conversations",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	summaries := make([]conversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summaries = append(summaries, conversationSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, map[string]any{"Conversations": summaries}); err != nil {
		h.logger.Error("Failed to render index", zap.Error(err))
	}
}
