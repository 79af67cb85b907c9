package boardapi

import "github.com/playperu/quizboard/internal/quizboard"

// Wire types for the game, board and team services.

type CreateGameRequest struct {
	Name string `json:"name"`
}

type GameResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type CreateCategoryRequest struct {
	Name   string `json:"name"`
	GameID int64  `json:"game_id"`
}

type CategoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	GameID int64  `json:"game_id"`
}

type CreateQuestionRequest struct {
	Text       string `json:"text"`
	Price      int    `json:"price"`
	Answer     string `json:"answer"`
	CategoryID int64  `json:"category_id"`
}

// QuestionResponse leaves IsAnswered nil when the service omits it.
type QuestionResponse struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Price      int    `json:"price"`
	Answer     string `json:"answer,omitempty"`
	CategoryID int64  `json:"category_id"`
	IsAnswered *bool  `json:"is_answered,omitempty"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type PatchQuestionRequest struct {
	IsAnswered bool `json:"is_answered"`
}

type CreateTeamRequest struct {
	Name   string `json:"name"`
	GameID int64  `json:"game_id"`
	Score  int    `json:"score"`
}

type TeamResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	GameID int64  `json:"game_id"`
}

type ScoreRequest struct {
	QuestionID int64 `json:"question_id"`
	Points     int   `json:"points"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (q QuestionResponse) Question() quizboard.Question {
	return quizboard.Question{
		ID:         q.ID,
		Text:       q.Text,
		Price:      q.Price,
		Answer:     q.Answer,
		IsAnswered: q.IsAnswered != nil && *q.IsAnswered,
	}
}

func (t TeamResponse) Team() quizboard.Team {
	return quizboard.Team{ID: t.ID, Name: t.Name, Score: t.Score, GameID: t.GameID}
}
