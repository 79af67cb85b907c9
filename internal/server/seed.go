package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playperu/quizboard/internal/boardapi"
)

type demoCategory struct {
	name      string
	questions []boardapi.CreateQuestionRequest
}

var demoBoard = []demoCategory{
	{"History", []boardapi.CreateQuestionRequest{
		{Text: "Who built the first programmable computer?", Price: 100, Answer: "Konrad Zuse"},
		{Text: "Year of the moon landing?", Price: 200, Answer: "1969"},
		{Text: "Which empire built Machu Picchu?", Price: 300, Answer: "The Inca"},
	}},
	{"People", []boardapi.CreateQuestionRequest{
		{Text: "Who wrote the theory of general relativity?", Price: 100, Answer: "Albert Einstein"},
		{Text: "Who painted the Mona Lisa?", Price: 200, Answer: "Leonardo da Vinci"},
		{Text: "Who was the first woman to win a Nobel Prize?", Price: 300, Answer: "Marie Curie"},
	}},
	{"Technology", []boardapi.CreateQuestionRequest{
		{Text: "What does HTTP stand for?", Price: 100, Answer: "HyperText Transfer Protocol"},
		{Text: "Which company created Go?", Price: 200, Answer: "Google"},
		{Text: "What year was the first iPhone released?", Price: 300, Answer: "2007"},
	}},
}

var demoTeams = []string{"Alpha", "Bravo"}

// SeedDemo creates a ready-to-play demo game and returns its id.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store) (int64, error) {
	g, err := store.CreateGame(ctx, "Demo Quiz")
	if err != nil {
		return 0, fmt.Errorf("creating demo game: %w", err)
	}

	for _, dc := range demoBoard {
		c, err := store.CreateCategory(ctx, boardapi.CreateCategoryRequest{Name: dc.name, GameID: g.ID})
		if err != nil {
			return 0, fmt.Errorf("creating demo category %q: %w", dc.name, err)
		}
		for _, q := range dc.questions {
			q.CategoryID = c.ID
			if _, err := store.CreateQuestion(ctx, q); err != nil {
				return 0, fmt.Errorf("creating demo question: %w", err)
			}
		}
	}

	for _, name := range demoTeams {
		if _, err := store.CreateTeam(ctx, boardapi.CreateTeamRequest{Name: name, GameID: g.ID}); err != nil {
			return 0, fmt.Errorf("creating demo team %q: %w", name, err)
		}
	}

	logger.Info("demo game seeded", "game_id", g.ID)
	return g.ID, nil
}
