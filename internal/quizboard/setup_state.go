package quizboard

import (
	"errors"
	"fmt"
)

// Step is a stage of the setup wizard.
type Step string

const (
	StepGameName   Step = "gameName"
	StepCategories Step = "categories"
	StepTeams      Step = "teams"
	StepReview     Step = "review"
)

// Steps lists the wizard stages in order.
var Steps = []Step{StepGameName, StepCategories, StepTeams, StepReview}

var ErrInvalidTransition = errors.New("invalid step transition")

// GameSetupState is the aggregate the setup wizard builds up.
type GameSetupState struct {
	Step       Step       `json:"step"`
	GameName   string     `json:"gameName"`
	GameID     int64      `json:"gameId"`
	Categories []Category `json:"categories"`
	Teams      []Team     `json:"teams"`
}

// NewGameSetupState returns the empty initial state.
func NewGameSetupState() GameSetupState {
	return GameSetupState{
		Step:       StepGameName,
		Categories: []Category{},
		Teams:      []Team{},
	}
}

// Clone returns a deep copy.
func (s GameSetupState) Clone() GameSetupState {
	s.Categories = CloneCategories(s.Categories)
	s.Teams = CloneTeams(s.Teams)
	return s
}

// Index returns the position of st in Steps, or -1.
func (st Step) Index() int {
	for i, s := range Steps {
		if s == st {
			return i
		}
	}
	return -1
}

func (st Step) Valid() bool { return st.Index() >= 0 }

// stepTransitions is the wizard's transition table. Forward moves go one
// step at a time; any earlier step may be revisited.
var stepTransitions = map[Step][]Step{
	StepGameName:   {StepCategories},
	StepCategories: {StepGameName, StepTeams},
	StepTeams:      {StepGameName, StepCategories, StepReview},
	StepReview:     {StepGameName, StepCategories, StepTeams},
}

// CheckTransition validates moving s from its current step to target.
// Moves must follow the transition table and entering categories, teams or
// review requires a game id.
func (s GameSetupState) CheckTransition(target Step) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown step %q", ErrInvalidTransition, target)
	}
	allowed := false
	for _, next := range stepTransitions[s.Step] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Step, target)
	}
	if target != StepGameName && s.GameID == 0 {
		return fmt.Errorf("%w: %s requires a created game", ErrInvalidTransition, target)
	}
	return nil
}
