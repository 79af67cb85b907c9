package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/quizboard/internal/boardapi"
)

func validateCategory(req *boardapi.CreateCategoryRequest) string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.GameID <= 0 {
		return "game_id is required"
	}
	return ""
}

func validateQuestion(req *boardapi.CreateQuestionRequest) string {
	req.Text = strings.TrimSpace(req.Text)
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Text == "" {
		return "text is required"
	}
	if req.Price < 0 {
		return "price must not be negative"
	}
	if req.CategoryID <= 0 {
		return "category_id is required"
	}
	return ""
}

func handleCreateCategory(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardapi.CreateCategoryRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := validateCategory(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		c, err := store.CreateCategory(r.Context(), req)
		if err != nil {
			logger.Error("creating category", "game_id", req.GameID, "error", err)
			writeStoreError(w, err, "game not found")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleListCategories(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := idParam(r, "gameID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		cats, err := store.ListCategories(r.Context(), gameID)
		if err != nil {
			logger.Error("listing categories", "game_id", gameID, "error", err)
			writeStoreError(w, err, "game not found")
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func handleCreateQuestion(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardapi.CreateQuestionRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := validateQuestion(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		q, err := store.CreateQuestion(r.Context(), req)
		if err != nil {
			logger.Error("creating question", "category_id", req.CategoryID, "error", err)
			writeStoreError(w, err, "category not found")
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

func handleListQuestions(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := idParam(r, "categoryID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid category id")
			return
		}

		qs, err := store.ListQuestions(r.Context(), categoryID)
		if err != nil {
			logger.Error("listing questions", "category_id", categoryID, "error", err)
			writeStoreError(w, err, "category not found")
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

func handleQuestionAnswer(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID, ok := idParam(r, "questionID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid question id")
			return
		}

		answer, err := store.QuestionAnswer(r.Context(), questionID)
		if err != nil {
			logger.Error("reading answer", "question_id", questionID, "error", err)
			writeStoreError(w, err, "question not found")
			return
		}
		writeJSON(w, http.StatusOK, boardapi.AnswerResponse{Answer: answer})
	}
}

func handlePatchQuestion(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID, ok := idParam(r, "questionID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid question id")
			return
		}
		var req boardapi.PatchQuestionRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		q, err := store.SetAnswered(r.Context(), questionID, req.IsAnswered)
		if err != nil {
			logger.Error("updating question", "question_id", questionID, "error", err)
			writeStoreError(w, err, "question not found")
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}
