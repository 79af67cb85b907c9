package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/quizboard/internal/boardapi"
)

func handleCreateTeam(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardapi.CreateTeamRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if req.GameID <= 0 {
			writeError(w, http.StatusBadRequest, "game_id is required")
			return
		}
		if req.Score != 0 {
			writeError(w, http.StatusBadRequest, "teams start with score 0")
			return
		}

		t, err := store.CreateTeam(r.Context(), req)
		if err != nil {
			logger.Error("creating team", "game_id", req.GameID, "error", err)
			writeStoreError(w, err, "game not found")
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func handleListTeams(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := idParam(r, "gameID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		teams, err := store.ListTeams(r.Context(), gameID)
		if err != nil {
			logger.Error("listing teams", "game_id", gameID, "error", err)
			writeStoreError(w, err, "game not found")
			return
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func handleAwardScore(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := idParam(r, "teamID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid team id")
			return
		}
		var req boardapi.ScoreRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.QuestionID <= 0 {
			writeError(w, http.StatusBadRequest, "question_id is required")
			return
		}
		if req.Points < 0 {
			writeError(w, http.StatusBadRequest, "points must not be negative")
			return
		}

		t, err := store.AwardScore(r.Context(), teamID, req)
		if err != nil {
			logger.Error("awarding score", "team_id", teamID, "question_id", req.QuestionID, "error", err)
			writeStoreError(w, err, "team or question not found")
			return
		}
		logger.Info("score awarded", "team_id", teamID, "question_id", req.QuestionID, "points", req.Points)
		writeJSON(w, http.StatusOK, t)
	}
}
