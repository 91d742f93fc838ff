package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/", h.Index)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/conversations/create/", h.CreateConversation)
		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Delete("/delete/", h.DeleteConversation)
			r.Post("/title/", h.UpdateConversationTitle)
			r.Get("/messages/", h.GetMessages)
			r.Post("/settings/", h.UpdateSettings)
			r.Get("/settings/get/", h.GetSettings)
		})
		r.Post("/messages/send/", h.SendMessage)
	})

	return r
}
