// Package quizboard defines the core domain types shared by the setup wizard,
// the live session and the leaderboard. It has zero external dependencies.
package quizboard

import "strings"

type Game struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Status GameStatus `json:"status"`
}

type GameStatus string

const (
	GameStatusNotStarted GameStatus = "not_started"
	GameStatusActive     GameStatus = "active"
	GameStatusFinished   GameStatus = "finished"
)

// Category holds its questions in display order.
type Category struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Price      int    `json:"price"`
	Answer     string `json:"answer"`
	IsAnswered bool   `json:"isAnswered"`
}

type Team struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	GameID int64  `json:"gameId"`
}

// CurrentGame is the game handed from setup to the live session.
type CurrentGame struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Status GameStatus `json:"status"`
	Teams  []Team     `json:"teams"`
}

// DefaultQuestionPrice is used when a question is added without a price.
const DefaultQuestionPrice = 100

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// CloneCategories deep-copies categories so callers can't alias question slices.
func CloneCategories(cats []Category) []Category {
	out := make([]Category, len(cats))
	for i, c := range cats {
		out[i] = c
		out[i].Questions = append([]Question{}, c.Questions...)
	}
	return out
}

// CloneTeams copies a team list.
func CloneTeams(teams []Team) []Team {
	return append([]Team{}, teams...)
}

// FindQuestion returns the category and question index of id, or ok=false.
func FindQuestion(cats []Category, id int64) (ci, qi int, ok bool) {
	for ci, c := range cats {
		for qi, q := range c.Questions {
			if q.ID == id {
				return ci, qi, true
			}
		}
	}
	return 0, 0, false
}

// Unanswered counts questions not yet awarded.
func Unanswered(cats []Category) int {
	n := 0
	for _, c := range cats {
		for _, q := range c.Questions {
			if !q.IsAnswered {
				n++
			}
		}
	}
	return n
}
