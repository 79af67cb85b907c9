package boardapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/playperu/quizboard/internal/boardapi"
	"github.com/playperu/quizboard/internal/boardtest"
)

func TestClientAgainstBackend(t *testing.T) {
	ctx := context.Background()
	b := boardtest.New(t)
	c := boardapi.New(b.URL()+"/", boardapi.WithLogger(boardtest.Logger()))

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}

	game, err := c.CreateGame(ctx, "Quiz Night")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if game.Status != "not_started" {
		t.Errorf("status = %q", game.Status)
	}

	cat, err := c.CreateCategory(ctx, "History", game.ID)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	q, err := c.CreateQuestion(ctx, boardapi.CreateQuestionRequest{Text: "Year?", Price: 200, Answer: "1969", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	qs, err := c.Questions(ctx, cat.ID)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != q.ID || qs[0].IsAnswered || qs[0].Answer != "" {
		t.Errorf("questions = %+v", qs)
	}

	answer, err := c.QuestionAnswer(ctx, q.ID)
	if err != nil || answer != "1969" {
		t.Errorf("QuestionAnswer = %q, %v", answer, err)
	}
	if err := c.MarkAnswered(ctx, q.ID); err != nil {
		t.Fatalf("MarkAnswered: %v", err)
	}
	qs, _ = c.Questions(ctx, cat.ID)
	if !qs[0].IsAnswered {
		t.Error("question not answered after MarkAnswered")
	}

	team, err := c.CreateTeam(ctx, "Alpha", game.ID)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := c.AwardScore(ctx, team.ID, q.ID, 200); err != nil {
		t.Fatalf("AwardScore: %v", err)
	}
	teams, err := c.Teams(ctx, game.ID)
	if err != nil {
		t.Fatalf("Teams: %v", err)
	}
	if len(teams) != 1 || teams[0].Score != 200 {
		t.Errorf("teams = %+v", teams)
	}

	raw, err := c.TeamsRaw(ctx, game.ID)
	if err != nil {
		t.Fatalf("TeamsRaw: %v", err)
	}
	if len(raw) == 0 || raw[0] != '[' {
		t.Errorf("TeamsRaw = %s", raw)
	}
}

func TestClientStatusError(t *testing.T) {
	ctx := context.Background()
	b := boardtest.New(t)
	c := boardapi.New(b.URL(), boardapi.WithLogger(boardtest.Logger()))

	_, err := c.Categories(ctx, 404)
	if !boardapi.IsNotFound(err) {
		t.Fatalf("Categories(missing) err = %v, want not found", err)
	}
	var se *boardapi.StatusError
	if !errors.As(err, &se) || se.Message == "" || se.Method != http.MethodGet {
		t.Errorf("status error = %+v", se)
	}

	_, err = c.CreateGame(ctx, " ")
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Errorf("CreateGame blank err = %v", err)
	}
}

func TestClientPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := boardapi.New(srv.URL, boardapi.WithLogger(boardtest.Logger()))
	err := c.Health(context.Background())
	var se *boardapi.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Health err = %v, want StatusError", err)
	}
	if se.Status != http.StatusInternalServerError || se.Message != "Internal Server Error" {
		t.Errorf("status error = %+v", se)
	}
}

func TestClientMissingAnsweredFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"text":"q","price":100,"category_id":3}]`))
	}))
	defer srv.Close()

	c := boardapi.New(srv.URL, boardapi.WithLogger(boardtest.Logger()))
	qs, err := c.Questions(context.Background(), 3)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(qs) != 1 || qs[0].IsAnswered {
		t.Errorf("questions = %+v, want one unanswered", qs)
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := boardapi.New(srv.URL, boardapi.WithTimeout(50*time.Millisecond), boardapi.WithLogger(boardtest.Logger()))
	if _, err := c.Teams(context.Background(), 1); err == nil {
		t.Fatal("expected timeout error")
	}
}
