package server

import (
	"context"
	"errors"

	"github.com/playperu/quizboard/internal/boardapi"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store is the persistence behind the game, board and team services.
type Store interface {
	CreateGame(ctx context.Context, name string) (boardapi.GameResponse, error)
	GameExists(ctx context.Context, gameID int64) (bool, error)

	CreateCategory(ctx context.Context, req boardapi.CreateCategoryRequest) (boardapi.CategoryResponse, error)
	ListCategories(ctx context.Context, gameID int64) ([]boardapi.CategoryResponse, error)

	CreateQuestion(ctx context.Context, req boardapi.CreateQuestionRequest) (boardapi.QuestionResponse, error)
	ListQuestions(ctx context.Context, categoryID int64) ([]boardapi.QuestionResponse, error)
	QuestionAnswer(ctx context.Context, questionID int64) (string, error)
	SetAnswered(ctx context.Context, questionID int64, answered bool) (boardapi.QuestionResponse, error)

	CreateTeam(ctx context.Context, req boardapi.CreateTeamRequest) (boardapi.TeamResponse, error)
	ListTeams(ctx context.Context, gameID int64) ([]boardapi.TeamResponse, error)
	AwardScore(ctx context.Context, teamID int64, req boardapi.ScoreRequest) (boardapi.TeamResponse, error)

	Ping(ctx context.Context) error
}
