package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-enroll/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	encodeHandler := handlers.NewEncodeHandler(s.enroller)

	healthHandler := handlers.NewHealthHandler(s.store)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Post("/encode", encodeHandler.Encode)

		if s.store == nil {
			r.HandleFunc("/student/*", studentAPIDisabled)
			return
		}

		studentsHandler := handlers.NewStudentsHandler(s.store)
		r.Route("/student", func(r chi.Router) {
			r.Get("/search", studentsHandler.Search)
			r.Post("/update-vector", studentsHandler.UpdateVector)
			r.Post("/create", studentsHandler.Create)
			r.Get("/get-vector/{id}", studentsHandler.GetVector)
			r.Get("/list", studentsHandler.List)
		})
	})
}

func studentAPIDisabled(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(`{"success":false,"message":"identity store not configured"}` + "\n"))
}
