// Package leaderboard ranks teams by score. It accepts the teams response in
// any of the shapes the team service has produced over time.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/playperu/quizboard/internal/quizboard"
)

var ErrUnknownShape = errors.New("unrecognized teams response")

// Entry is one ranked row. Rank starts at 1.
type Entry struct {
	Rank int
	Team quizboard.Team
}

// Result carries the normalized teams, or the reason there are none.
type Result struct {
	Teams []quizboard.Team
	Err   error
}

// Source returns the raw teams response of a game.
type Source interface {
	TeamsRaw(ctx context.Context, gameID int64) ([]byte, error)
}

// Project orders teams by score, highest first. Teams with equal scores keep
// their input order.
func Project(teams []quizboard.Team) []Entry {
	sorted := quizboard.CloneTeams(teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	entries := make([]Entry, len(sorted))
	for i, t := range sorted {
		entries[i] = Entry{Rank: i + 1, Team: t}
	}
	return entries
}

// Normalize accepts a bare array, an object wrapping the array in "teams" or
// "data", or a single team object.
func Normalize(raw []byte) Result {
	if !gjson.ValidBytes(raw) {
		return Result{Teams: []quizboard.Team{}, Err: fmt.Errorf("%w: invalid JSON", ErrUnknownShape)}
	}

	doc := gjson.ParseBytes(raw)
	switch {
	case doc.IsArray():
		return fromArray(doc)
	case doc.IsObject():
		for _, key := range []string{"teams", "data"} {
			if v := doc.Get(key); v.IsArray() {
				return fromArray(v)
			}
		}
		if isTeam(doc) {
			return Result{Teams: []quizboard.Team{teamFrom(doc)}}
		}
	}
	return Result{Teams: []quizboard.Team{}, Err: ErrUnknownShape}
}

func fromArray(arr gjson.Result) Result {
	teams := []quizboard.Team{}
	for _, v := range arr.Array() {
		if !isTeam(v) {
			return Result{Teams: []quizboard.Team{}, Err: fmt.Errorf("%w: element %s", ErrUnknownShape, v.Raw)}
		}
		teams = append(teams, teamFrom(v))
	}
	return Result{Teams: teams}
}

func isTeam(v gjson.Result) bool {
	return v.IsObject() && v.Get("name").Type == gjson.String
}

func teamFrom(v gjson.Result) quizboard.Team {
	gameID := v.Get("game_id")
	if !gameID.Exists() {
		gameID = v.Get("gameId")
	}
	return quizboard.Team{
		ID:     v.Get("id").Int(),
		Name:   v.Get("name").String(),
		Score:  int(v.Get("score").Int()),
		GameID: gameID.Int(),
	}
}

// Fetch loads and normalizes a game's teams. Transport failures are reported
// in Result.Err.
func Fetch(ctx context.Context, src Source, gameID int64) Result {
	raw, err := src.TeamsRaw(ctx, gameID)
	if err != nil {
		return Result{Teams: []quizboard.Team{}, Err: fmt.Errorf("fetching teams: %w", err)}
	}
	return Normalize(raw)
}
