// Package boardapi is the REST client for the game, board and team services.
package boardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/playperu/quizboard/internal/quizboard"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
}

// IsNotFound reports whether err is a 404 from the services.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateGame(ctx context.Context, name string) (quizboard.Game, error) {
	var resp GameResponse
	if err := c.do(ctx, http.MethodPost, "/game_service/games", CreateGameRequest{Name: name}, &resp); err != nil {
		return quizboard.Game{}, err
	}
	status := quizboard.GameStatus(resp.Status)
	if status == "" {
		status = quizboard.GameStatusNotStarted
	}
	return quizboard.Game{ID: resp.ID, Name: resp.Name, Status: status}, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string, gameID int64) (quizboard.Category, error) {
	var resp CategoryResponse
	req := CreateCategoryRequest{Name: name, GameID: gameID}
	if err := c.do(ctx, http.MethodPost, "/board_service/categories", req, &resp); err != nil {
		return quizboard.Category{}, err
	}
	return quizboard.Category{ID: resp.ID, Name: name, Questions: []quizboard.Question{}}, nil
}

func (c *Client) CreateQuestion(ctx context.Context, req CreateQuestionRequest) (quizboard.Question, error) {
	var resp QuestionResponse
	if err := c.do(ctx, http.MethodPost, "/board_service/questions", req, &resp); err != nil {
		return quizboard.Question{}, err
	}
	return quizboard.Question{ID: resp.ID, Text: req.Text, Price: req.Price, Answer: req.Answer}, nil
}

func (c *Client) CreateTeam(ctx context.Context, name string, gameID int64) (quizboard.Team, error) {
	var resp TeamResponse
	req := CreateTeamRequest{Name: name, GameID: gameID, Score: 0}
	if err := c.do(ctx, http.MethodPost, "/team_service/teams", req, &resp); err != nil {
		return quizboard.Team{}, err
	}
	return quizboard.Team{ID: resp.ID, Name: name, Score: 0, GameID: gameID}, nil
}

// Categories lists a game's categories without their questions.
func (c *Client) Categories(ctx context.Context, gameID int64) ([]quizboard.Category, error) {
	var resp []CategoryResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/board_service/games/%d/categories", gameID), nil, &resp); err != nil {
		return nil, err
	}
	cats := make([]quizboard.Category, len(resp))
	for i, r := range resp {
		cats[i] = quizboard.Category{ID: r.ID, Name: r.Name, Questions: []quizboard.Question{}}
	}
	return cats, nil
}

// Questions lists a category's questions with missing answered flags read as false.
func (c *Client) Questions(ctx context.Context, categoryID int64) ([]quizboard.Question, error) {
	var resp []QuestionResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/board_service/categories/%d/questions", categoryID), nil, &resp); err != nil {
		return nil, err
	}
	qs := make([]quizboard.Question, len(resp))
	for i, r := range resp {
		qs[i] = r.Question()
	}
	return qs, nil
}

func (c *Client) QuestionAnswer(ctx context.Context, questionID int64) (string, error) {
	var resp AnswerResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/board_service/questions/%d/answer", questionID), nil, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

func (c *Client) MarkAnswered(ctx context.Context, questionID int64) error {
	path := fmt.Sprintf("/board_service/questions/%d", questionID)
	return c.do(ctx, http.MethodPatch, path, PatchQuestionRequest{IsAnswered: true}, nil)
}

func (c *Client) Teams(ctx context.Context, gameID int64) ([]quizboard.Team, error) {
	var resp []TeamResponse
	if err := c.do(ctx, http.MethodGet, teamsPath(gameID), nil, &resp); err != nil {
		return nil, err
	}
	teams := make([]quizboard.Team, len(resp))
	for i, r := range resp {
		teams[i] = r.Team()
	}
	return teams, nil
}

// TeamsRaw returns the undecoded teams response so callers can cope with
// whatever shape the service produced.
func (c *Client) TeamsRaw(ctx context.Context, gameID int64) ([]byte, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, teamsPath(gameID), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) AwardScore(ctx context.Context, teamID, questionID int64, points int) error {
	path := fmt.Sprintf("/team_service/teams/%d/scores", teamID)
	return c.do(ctx, http.MethodPost, path, ScoreRequest{QuestionID: questionID, Points: points}, nil)
}

// Health pings the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func teamsPath(gameID int64) string {
	return fmt.Sprintf("/team_service/games/%d/teams", gameID)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("board request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("board request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: e.Error}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}
