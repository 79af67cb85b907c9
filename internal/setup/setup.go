// Package setup drives the game creation wizard: name, categories and
// questions, teams, review. Every change is persisted to the atom store and
// every remote failure leaves the wizard exactly as it was.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/playperu/quizboard/internal/atoms"
	"github.com/playperu/quizboard/internal/boardapi"
	"github.com/playperu/quizboard/internal/inflight"
	"github.com/playperu/quizboard/internal/quizboard"
)

var (
	// ErrInvalidInput marks a refused operation: blank name, index out of
	// range, or a prerequisite the wizard hasn't produced yet.
	ErrInvalidInput = errors.New("invalid input")

	// ErrReset is returned when the wizard was reset while a remote call for
	// the previous game was outstanding; the result is discarded.
	ErrReset = errors.New("setup was reset")
)

// Remote creates setup entities in the board services.
type Remote interface {
	CreateGame(ctx context.Context, name string) (quizboard.Game, error)
	CreateCategory(ctx context.Context, name string, gameID int64) (quizboard.Category, error)
	CreateQuestion(ctx context.Context, req boardapi.CreateQuestionRequest) (quizboard.Question, error)
	CreateTeam(ctx context.Context, name string, gameID int64) (quizboard.Team, error)
}

type Machine struct {
	remote Remote
	logger *slog.Logger
	guard  inflight.Guard

	setupAtom   *atoms.Atom[quizboard.GameSetupState]
	gameName    *atoms.Atom[string]
	startText   *atoms.Atom[bool]
	currentGame *atoms.Atom[quizboard.CurrentGame]
	teams       *atoms.Atom[[]quizboard.Team]

	mu    sync.Mutex
	state quizboard.GameSetupState
}

// New restores the wizard from store.
func New(ctx context.Context, store atoms.Store, remote Remote, logger *slog.Logger) (*Machine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		remote:      remote,
		logger:      logger,
		setupAtom:   atoms.New(store, atoms.KeyGameSetup, quizboard.NewGameSetupState()),
		gameName:    atoms.New(store, atoms.KeyGameName, ""),
		startText:   atoms.New(store, atoms.KeyStartText, true),
		currentGame: atoms.New(store, atoms.KeyCurrentGame, quizboard.CurrentGame{}),
		teams:       atoms.New(store, atoms.KeyTeams, []quizboard.Team{}),
	}

	st, err := m.setupAtom.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring setup: %w", err)
	}
	m.state = normalize(st)
	return m, nil
}

// normalize repairs states written by older versions: nil slices and a
// missing step.
func normalize(st quizboard.GameSetupState) quizboard.GameSetupState {
	if !st.Step.Valid() {
		st.Step = quizboard.StepGameName
	}
	if st.Categories == nil {
		st.Categories = []quizboard.Category{}
	}
	for i := range st.Categories {
		if st.Categories[i].Questions == nil {
			st.Categories[i].Questions = []quizboard.Question{}
		}
	}
	if st.Teams == nil {
		st.Teams = []quizboard.Team{}
	}
	return st
}

// State returns a copy of the current wizard state.
func (m *Machine) State() quizboard.GameSetupState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Busy reports whether action has a remote call outstanding.
func (m *Machine) Busy(action string) bool { return m.guard.Busy(action) }

// commit applies fn to a copy of the state, persists it and only then makes
// it current. Callers hold m.mu.
func (m *Machine) commit(ctx context.Context, fn func(*quizboard.GameSetupState)) error {
	next := m.state.Clone()
	fn(&next)
	if err := m.setupAtom.Save(ctx, next); err != nil {
		return err
	}
	m.state = next
	return nil
}

// SetGameName updates the draft name. The name is fixed once the game exists.
func (m *Machine) SetGameName(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.GameID != 0 {
		return fmt.Errorf("%w: game already created", ErrInvalidInput)
	}
	return m.commit(ctx, func(s *quizboard.GameSetupState) { s.GameName = name })
}

// CommitGame creates the game remotely and advances to the categories step.
// If the game already exists it only advances.
func (m *Machine) CommitGame(ctx context.Context) error {
	done, err := m.guard.Begin("commitGame")
	if err != nil {
		return err
	}
	defer done()

	m.mu.Lock()
	name := strings.TrimSpace(m.state.GameName)
	existing := m.state.GameID
	step := m.state.Step
	m.mu.Unlock()

	if existing != 0 {
		if step == quizboard.StepGameName {
			return m.Advance(ctx, quizboard.StepCategories)
		}
		return nil
	}
	if name == "" {
		return fmt.Errorf("%w: game name is required", ErrInvalidInput)
	}

	game, err := m.remote.CreateGame(ctx, name)
	if err != nil {
		m.logger.Error("creating game", "name", name, "error", err)
		return fmt.Errorf("creating game: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.GameID != 0 || strings.TrimSpace(m.state.GameName) != name {
		return fmt.Errorf("%w: game %d discarded", ErrReset, game.ID)
	}
	if err := m.gameName.Save(ctx, name); err != nil {
		return err
	}
	if err := m.commit(ctx, func(s *quizboard.GameSetupState) {
		s.GameName = name
		s.GameID = game.ID
		s.Step = quizboard.StepCategories
	}); err != nil {
		return err
	}
	m.logger.Info("game created", "game_id", game.ID, "name", name)
	return nil
}

// AddCategory creates a category and appends it with no questions.
func (m *Machine) AddCategory(ctx context.Context, name string) (quizboard.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return quizboard.Category{}, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	done, err := m.guard.Begin("addCategory")
	if err != nil {
		return quizboard.Category{}, err
	}
	defer done()

	gameID := m.gameID()
	if gameID == 0 {
		return quizboard.Category{}, fmt.Errorf("%w: create the game first", ErrInvalidInput)
	}

	cat, err := m.remote.CreateCategory(ctx, name, gameID)
	if err != nil {
		m.logger.Error("creating category", "game_id", gameID, "name", name, "error", err)
		return quizboard.Category{}, fmt.Errorf("creating category: %w", err)
	}
	cat.Name = name
	cat.Questions = []quizboard.Question{}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.GameID != gameID {
		return quizboard.Category{}, fmt.Errorf("%w: category %d discarded", ErrReset, cat.ID)
	}
	if err := m.commit(ctx, func(s *quizboard.GameSetupState) {
		s.Categories = append(s.Categories, cat)
	}); err != nil {
		return quizboard.Category{}, err
	}
	return cat, nil
}

// AddQuestion creates a question in the category at categoryIndex. A zero
// price means the default price.
func (m *Machine) AddQuestion(ctx context.Context, categoryIndex int, text string, price int, answer string) (quizboard.Question, error) {
	text = strings.TrimSpace(text)
	answer = strings.TrimSpace(answer)
	if text == "" {
		return quizboard.Question{}, fmt.Errorf("%w: question text is required", ErrInvalidInput)
	}
	if price < 0 {
		return quizboard.Question{}, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if price == 0 {
		price = quizboard.DefaultQuestionPrice
	}

	done, err := m.guard.Begin("addQuestion")
	if err != nil {
		return quizboard.Question{}, err
	}
	defer done()

	m.mu.Lock()
	gameID := m.state.GameID
	if categoryIndex < 0 || categoryIndex >= len(m.state.Categories) {
		m.mu.Unlock()
		return quizboard.Question{}, fmt.Errorf("%w: no category at index %d", ErrInvalidInput, categoryIndex)
	}
	categoryID := m.state.Categories[categoryIndex].ID
	m.mu.Unlock()

	if categoryID == 0 {
		return quizboard.Question{}, fmt.Errorf("%w: category %d has no id", ErrInvalidInput, categoryIndex)
	}

	q, err := m.remote.CreateQuestion(ctx, boardapi.CreateQuestionRequest{
		Text:       text,
		Price:      price,
		Answer:     answer,
		CategoryID: categoryID,
	})
	if err != nil {
		m.logger.Error("creating question", "category_id", categoryID, "error", err)
		return quizboard.Question{}, fmt.Errorf("creating question: %w", err)
	}
	q.IsAnswered = false

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.GameID != gameID || categoryIndex >= len(m.state.Categories) || m.state.Categories[categoryIndex].ID != categoryID {
		return quizboard.Question{}, fmt.Errorf("%w: question %d discarded", ErrReset, q.ID)
	}
	if err := m.commit(ctx, func(s *quizboard.GameSetupState) {
		c := &s.Categories[categoryIndex]
		c.Questions = append(c.Questions, q)
	}); err != nil {
		return quizboard.Question{}, err
	}
	return q, nil
}

// AddTeam registers a team with score 0.
func (m *Machine) AddTeam(ctx context.Context, name string) (quizboard.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return quizboard.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	done, err := m.guard.Begin("addTeam")
	if err != nil {
		return quizboard.Team{}, err
	}
	defer done()

	gameID := m.gameID()
	if gameID == 0 {
		return quizboard.Team{}, fmt.Errorf("%w: create the game first", ErrInvalidInput)
	}

	team, err := m.remote.CreateTeam(ctx, name, gameID)
	if err != nil {
		m.logger.Error("creating team", "game_id", gameID, "name", name, "error", err)
		return quizboard.Team{}, fmt.Errorf("creating team: %w", err)
	}
	team.Name = name
	team.Score = 0
	team.GameID = gameID

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.GameID != gameID {
		return quizboard.Team{}, fmt.Errorf("%w: team %d discarded", ErrReset, team.ID)
	}
	if err := m.commit(ctx, func(s *quizboard.GameSetupState) {
		s.Teams = append(s.Teams, team)
	}); err != nil {
		return quizboard.Team{}, err
	}
	return team, nil
}

// Advance moves to the next step.
func (m *Machine) Advance(ctx context.Context, target quizboard.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if target.Index() != m.state.Step.Index()+1 {
		return fmt.Errorf("%w: cannot advance from %s to %s", quizboard.ErrInvalidTransition, m.state.Step, target)
	}
	return m.move(ctx, target)
}

// Retreat moves back to an earlier step. Collected data is kept.
func (m *Machine) Retreat(ctx context.Context, target quizboard.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !target.Valid() || target.Index() >= m.state.Step.Index() {
		return fmt.Errorf("%w: cannot retreat from %s to %s", quizboard.ErrInvalidTransition, m.state.Step, target)
	}
	return m.move(ctx, target)
}

func (m *Machine) move(ctx context.Context, target quizboard.Step) error {
	if err := m.state.CheckTransition(target); err != nil {
		return err
	}
	return m.commit(ctx, func(s *quizboard.GameSetupState) { s.Step = target })
}

// Reset clears the wizard for a brand-new game.
func (m *Machine) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.commit(ctx, func(s *quizboard.GameSetupState) {
		*s = quizboard.NewGameSetupState()
	}); err != nil {
		return err
	}
	if err := m.gameName.Clear(ctx); err != nil {
		return err
	}
	return m.startText.Save(ctx, true)
}

// Complete hands the reviewed game to the live session by publishing the
// currentGame and teams atoms.
func (m *Machine) Complete(ctx context.Context) (quizboard.CurrentGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Step != quizboard.StepReview {
		return quizboard.CurrentGame{}, fmt.Errorf("%w: setup is at %s, not review", ErrInvalidInput, m.state.Step)
	}

	cg := quizboard.CurrentGame{
		ID:     m.state.GameID,
		Name:   m.state.GameName,
		Status: quizboard.GameStatusNotStarted,
		Teams:  quizboard.CloneTeams(m.state.Teams),
	}
	if err := m.currentGame.Save(ctx, cg); err != nil {
		return quizboard.CurrentGame{}, err
	}
	if err := m.teams.Save(ctx, cg.Teams); err != nil {
		return quizboard.CurrentGame{}, err
	}
	m.logger.Info("setup complete", "game_id", cg.ID, "teams", len(cg.Teams))
	return cg, nil
}

func (m *Machine) gameID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GameID
}
