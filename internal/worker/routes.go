package worker

import (
	"github.com/go-chi/chi/v5"
)

func (s *Service) setupRoutes() {
	r := s.router
	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions-summary", s.handleSessionsSummary)
		r.Get("/sessions/{id}/summary", s.handleSessionSummary)
		r.Get("/players", s.handlePlayers)
		r.Get("/hall-of-fame", s.handleHallOfFame)
		r.Get("/characters/{name}/stats", s.handleCharacterStats)
		r.Get("/events", s.sseBroadcaster.HandleSSE)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Post("/sessions/{id}/reassign", s.handleReassign)
			r.Get("/reassignments", s.handleListReassignments)
		})
	})
}
