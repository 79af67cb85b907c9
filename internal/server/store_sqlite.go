package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/playperu/quizboard/internal/boardapi"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore expects db to be migrated already.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) CreateGame(ctx context.Context, name string) (boardapi.GameResponse, error) {
	g := boardapi.GameResponse{Name: name}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO games (name) VALUES (?)
		RETURNING id, status
	`, name).Scan(&g.ID, &g.Status)
	return g, err
}

func (s *SQLiteStore) GameExists(ctx context.Context, gameID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE id = ?`, gameID).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) CreateCategory(ctx context.Context, req boardapi.CreateCategoryRequest) (boardapi.CategoryResponse, error) {
	ok, err := s.GameExists(ctx, req.GameID)
	if err != nil {
		return boardapi.CategoryResponse{}, err
	}
	if !ok {
		return boardapi.CategoryResponse{}, ErrNotFound
	}

	c := boardapi.CategoryResponse{Name: req.Name, GameID: req.GameID}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO categories (game_id, name) VALUES (?, ?)
		RETURNING id
	`, req.GameID, req.Name).Scan(&c.ID)
	return c, err
}

func (s *SQLiteStore) ListCategories(ctx context.Context, gameID int64) ([]boardapi.CategoryResponse, error) {
	ok, err := s.GameExists(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, game_id FROM categories WHERE game_id = ? ORDER BY id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []boardapi.CategoryResponse{}
	for rows.Next() {
		var c boardapi.CategoryResponse
		if err := rows.Scan(&c.ID, &c.Name, &c.GameID); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *SQLiteStore) CreateQuestion(ctx context.Context, req boardapi.CreateQuestionRequest) (boardapi.QuestionResponse, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, req.CategoryID).Scan(&n); err != nil {
		return boardapi.QuestionResponse{}, err
	}
	if n == 0 {
		return boardapi.QuestionResponse{}, ErrNotFound
	}

	answered := false
	q := boardapi.QuestionResponse{
		Text:       req.Text,
		Price:      req.Price,
		Answer:     req.Answer,
		CategoryID: req.CategoryID,
		IsAnswered: &answered,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (category_id, text, price, answer) VALUES (?, ?, ?, ?)
		RETURNING id
	`, req.CategoryID, req.Text, req.Price, req.Answer).Scan(&q.ID)
	return q, err
}

// ListQuestions omits answers; they are fetched one at a time on reveal.
func (s *SQLiteStore) ListQuestions(ctx context.Context, categoryID int64) ([]boardapi.QuestionResponse, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, categoryID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, price, category_id, is_answered
		FROM questions WHERE category_id = ? ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	qs := []boardapi.QuestionResponse{}
	for rows.Next() {
		var q boardapi.QuestionResponse
		var answered bool
		if err := rows.Scan(&q.ID, &q.Text, &q.Price, &q.CategoryID, &answered); err != nil {
			return nil, err
		}
		q.IsAnswered = &answered
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

func (s *SQLiteStore) QuestionAnswer(ctx context.Context, questionID int64) (string, error) {
	var answer string
	err := s.db.QueryRowContext(ctx, `SELECT answer FROM questions WHERE id = ?`, questionID).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return answer, err
}

// SetAnswered marks a question answered. Answered questions stay answered;
// asking to clear the flag is a conflict.
func (s *SQLiteStore) SetAnswered(ctx context.Context, questionID int64, answered bool) (boardapi.QuestionResponse, error) {
	var q boardapi.QuestionResponse
	var current bool
	err := s.db.QueryRowContext(ctx, `
		SELECT id, text, price, category_id, is_answered FROM questions WHERE id = ?
	`, questionID).Scan(&q.ID, &q.Text, &q.Price, &q.CategoryID, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrNotFound
	}
	if err != nil {
		return q, err
	}
	if current && !answered {
		return q, fmt.Errorf("%w: question %d already answered", ErrConflict, questionID)
	}

	if answered && !current {
		if _, err := s.db.ExecContext(ctx, `UPDATE questions SET is_answered = 1 WHERE id = ?`, questionID); err != nil {
			return q, err
		}
	}
	result := current || answered
	q.IsAnswered = &result
	return q, nil
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, req boardapi.CreateTeamRequest) (boardapi.TeamResponse, error) {
	ok, err := s.GameExists(ctx, req.GameID)
	if err != nil {
		return boardapi.TeamResponse{}, err
	}
	if !ok {
		return boardapi.TeamResponse{}, ErrNotFound
	}

	t := boardapi.TeamResponse{Name: req.Name, Score: req.Score, GameID: req.GameID}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO teams (game_id, name, score) VALUES (?, ?, ?)
		RETURNING id
	`, req.GameID, req.Name, req.Score).Scan(&t.ID)
	return t, err
}

func (s *SQLiteStore) ListTeams(ctx context.Context, gameID int64) ([]boardapi.TeamResponse, error) {
	ok, err := s.GameExists(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, score, game_id FROM teams WHERE game_id = ? ORDER BY id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []boardapi.TeamResponse{}
	for rows.Next() {
		var t boardapi.TeamResponse
		if err := rows.Scan(&t.ID, &t.Name, &t.Score, &t.GameID); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// AwardScore records points for a question once. Repeating the same award
// is a no-op; awarding the question to a second team is a conflict.
func (s *SQLiteStore) AwardScore(ctx context.Context, teamID int64, req boardapi.ScoreRequest) (boardapi.TeamResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return boardapi.TeamResponse{}, err
	}
	defer tx.Rollback()

	var t boardapi.TeamResponse
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, score, game_id FROM teams WHERE id = ?
	`, teamID).Scan(&t.ID, &t.Name, &t.Score, &t.GameID)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE id = ?`, req.QuestionID).Scan(&n); err != nil {
		return t, err
	}
	if n == 0 {
		return t, ErrNotFound
	}

	var awardedTo int64
	err = tx.QueryRowContext(ctx, `SELECT team_id FROM scores WHERE question_id = ?`, req.QuestionID).Scan(&awardedTo)
	switch {
	case err == nil && awardedTo == teamID:
		return t, nil
	case err == nil:
		return t, fmt.Errorf("%w: question %d already awarded", ErrConflict, req.QuestionID)
	case !errors.Is(err, sql.ErrNoRows):
		return t, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scores (team_id, question_id, points) VALUES (?, ?, ?)
	`, teamID, req.QuestionID, req.Points); err != nil {
		return t, err
	}
	if err := tx.QueryRowContext(ctx, `
		UPDATE teams SET score = score + ? WHERE id = ?
		RETURNING score
	`, req.Points, teamID).Scan(&t.Score); err != nil {
		return t, err
	}

	return t, tx.Commit()
}
