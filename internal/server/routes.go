package server

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Quiz Board API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, map[string]Checker{
		"sqlite": CheckerFunc(func(ctx context.Context) error { return store.Ping(ctx) }),
	}))

	r.Route("/game_service", func(r chi.Router) {
		r.With(requireJSON).Post("/games", handleCreateGame(logger, store))
	})

	r.Route("/board_service", func(r chi.Router) {
		r.With(requireJSON).Post("/categories", handleCreateCategory(logger, store))
		r.Get("/games/{gameID}/categories", handleListCategories(logger, store))
		r.With(requireJSON).Post("/questions", handleCreateQuestion(logger, store))
		r.Get("/categories/{categoryID}/questions", handleListQuestions(logger, store))
		r.Get("/questions/{questionID}/answer", handleQuestionAnswer(logger, store))
		r.With(requireJSON).Patch("/questions/{questionID}", handlePatchQuestion(logger, store))
	})

	r.Route("/team_service", func(r chi.Router) {
		r.With(requireJSON).Post("/teams", handleCreateTeam(logger, store))
		r.Get("/games/{gameID}/teams", handleListTeams(logger, store))
		r.With(requireJSON).Post("/teams/{teamID}/scores", handleAwardScore(logger, store))
	})
}
