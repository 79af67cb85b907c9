// Package session runs a live game: it loads the board from the services,
// opens questions, reveals answers and awards points.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/quizboard/internal/atoms"
	"github.com/playperu/quizboard/internal/inflight"
	"github.com/playperu/quizboard/internal/quizboard"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotLoaded        = errors.New("no game loaded")
	ErrNoOpenQuestion   = errors.New("no open question")
	ErrNoRevealedAnswer = errors.New("answer not revealed")

	// ErrAwardPending is returned by Award while an earlier award has not
	// reached the services. Call ResumeAward first.
	ErrAwardPending = errors.New("previous award not settled")
)

// maxConcurrentFetches bounds the per-category question requests of a load.
const maxConcurrentFetches = 8

// Remote reads the board and records awards in the services.
type Remote interface {
	Teams(ctx context.Context, gameID int64) ([]quizboard.Team, error)
	Categories(ctx context.Context, gameID int64) ([]quizboard.Category, error)
	Questions(ctx context.Context, categoryID int64) ([]quizboard.Question, error)
	QuestionAnswer(ctx context.Context, questionID int64) (string, error)
	MarkAnswered(ctx context.Context, questionID int64) error
	AwardScore(ctx context.Context, teamID, questionID int64, points int) error
}

type Controller struct {
	remote Remote
	logger *slog.Logger
	guard  inflight.Guard

	sessionAtom *atoms.Atom[quizboard.Session]
	pendingAtom *atoms.Atom[quizboard.PendingAward]
	teamsAtom   *atoms.Atom[[]quizboard.Team]
	startText   *atoms.Atom[bool]

	mu      sync.Mutex
	state   quizboard.Session
	pending quizboard.PendingAward
}

// New restores the session and any unsettled award from store.
func New(ctx context.Context, store atoms.Store, remote Remote, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		remote:      remote,
		logger:      logger,
		sessionAtom: atoms.New(store, atoms.KeySession, quizboard.NewSession()),
		pendingAtom: atoms.New(store, atoms.KeyPendingAward, quizboard.PendingAward{}),
		teamsAtom:   atoms.New(store, atoms.KeyTeams, []quizboard.Team{}),
		startText:   atoms.New(store, atoms.KeyStartText, true),
	}

	st, err := c.sessionAtom.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	if st.Phase == "" {
		st.Phase = quizboard.PhaseIdle
	}
	if st.Categories == nil {
		st.Categories = []quizboard.Category{}
	}
	if st.Teams == nil {
		st.Teams = []quizboard.Team{}
	}
	c.state = st

	c.pending, err = c.pendingAtom.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring pending award: %w", err)
	}
	return c, nil
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() quizboard.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// PendingAward returns the award saga that has not reached the services yet.
func (c *Controller) PendingAward() (quizboard.PendingAward, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.pending.Stage != "" && c.pending.Stage != quizboard.AwardDone
}

// Busy reports whether action has a remote call outstanding.
func (c *Controller) Busy(action string) bool { return c.guard.Busy(action) }

// commit applies fn to a copy of the state, persists it and then makes it
// current. Callers hold c.mu.
func (c *Controller) commit(ctx context.Context, fn func(*quizboard.Session)) error {
	next := c.state.Clone()
	fn(&next)
	if err := c.sessionAtom.Save(ctx, next); err != nil {
		return err
	}
	c.state = next
	return nil
}

// Load fetches the game's teams, categories and questions and replaces the
// session with the merged board. On any failure the previous session is kept.
func (c *Controller) Load(ctx context.Context, gameID int64) error {
	if gameID <= 0 {
		return fmt.Errorf("%w: game id %d", ErrInvalidInput, gameID)
	}
	done, err := c.guard.Begin("load")
	if err != nil {
		return err
	}
	defer done()

	teams, err := c.remote.Teams(ctx, gameID)
	if err != nil {
		c.logger.Error("loading teams", "game_id", gameID, "error", err)
		return fmt.Errorf("loading teams: %w", err)
	}
	cats, err := c.remote.Categories(ctx, gameID)
	if err != nil {
		c.logger.Error("loading categories", "game_id", gameID, "error", err)
		return fmt.Errorf("loading categories: %w", err)
	}

	// Each goroutine writes only its own slot, so order follows the
	// categories response.
	questions := make([][]quizboard.Question, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, cat := range cats {
		g.Go(func() error {
			qs, err := c.remote.Questions(gctx, cat.ID)
			if err != nil {
				return fmt.Errorf("loading questions for category %d: %w", cat.ID, err)
			}
			questions[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("loading board", "game_id", gameID, "error", err)
		return err
	}

	board := make([]quizboard.Category, len(cats))
	for i, cat := range cats {
		cat.Questions = append([]quizboard.Question{}, questions[i]...)
		board[i] = cat
	}
	if teams == nil {
		teams = []quizboard.Team{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending.GameID == gameID {
		overlayPending(board, teams, c.pending)
	}
	if err := c.commit(ctx, func(s *quizboard.Session) {
		*s = quizboard.Session{
			Phase:      boardPhase(board),
			GameID:     gameID,
			Categories: board,
			Teams:      teams,
		}
	}); err != nil {
		return err
	}
	if err := c.teamsAtom.Save(ctx, teams); err != nil {
		return err
	}
	if err := c.startText.Save(ctx, false); err != nil {
		return err
	}
	c.logger.Info("board loaded", "game_id", gameID, "categories", len(board), "teams", len(teams))
	return nil
}

// overlayPending reapplies an unsettled award to a freshly fetched board. The
// services have not recorded the score in either stage, so the points are
// always added back.
func overlayPending(board []quizboard.Category, teams []quizboard.Team, p quizboard.PendingAward) {
	if p.Stage != quizboard.AwardPending && p.Stage != quizboard.AwardAnsweredRemotePendingScore {
		return
	}
	if ci, qi, ok := quizboard.FindQuestion(board, p.QuestionID); ok {
		board[ci].Questions[qi].IsAnswered = true
	}
	for i := range teams {
		if teams[i].ID == p.TeamID {
			teams[i].Score += p.Points
		}
	}
}

// boardPhase is finished once a non-empty board has no unanswered questions.
func boardPhase(cats []quizboard.Category) quizboard.Phase {
	total := 0
	for _, cat := range cats {
		total += len(cat.Questions)
	}
	if total > 0 && quizboard.Unanswered(cats) == 0 {
		return quizboard.PhaseFinished
	}
	return quizboard.PhaseLoaded
}

// Open shows a question. Opening an answered question does nothing.
func (c *Controller) Open(ctx context.Context, questionID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase == quizboard.PhaseIdle {
		return ErrNotLoaded
	}
	ci, qi, ok := quizboard.FindQuestion(c.state.Categories, questionID)
	if !ok {
		return fmt.Errorf("%w: question %d", ErrNotFound, questionID)
	}
	if c.state.Categories[ci].Questions[qi].IsAnswered {
		return nil
	}
	return c.commit(ctx, func(s *quizboard.Session) {
		s.OpenQuestionID = questionID
		s.RevealedAnswer = ""
		s.SelectedTeamID = 0
		s.Phase = quizboard.PhaseQuestionOpen
	})
}

// Reveal fetches the open question's answer. On failure the question stays
// open and Reveal can be retried.
func (c *Controller) Reveal(ctx context.Context) (string, error) {
	done, err := c.guard.Begin("reveal")
	if err != nil {
		return "", err
	}
	defer done()

	c.mu.Lock()
	q, ok := c.state.OpenQuestion()
	c.mu.Unlock()
	if !ok {
		return "", ErrNoOpenQuestion
	}

	answer, err := c.remote.QuestionAnswer(ctx, q.ID)
	if err != nil {
		c.logger.Error("revealing answer", "question_id", q.ID, "error", err)
		return "", fmt.Errorf("revealing answer: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.OpenQuestionID != q.ID {
		return "", fmt.Errorf("%w: question %d was closed", ErrNoOpenQuestion, q.ID)
	}
	if err := c.commit(ctx, func(s *quizboard.Session) {
		s.RevealedAnswer = answer
		s.Phase = quizboard.PhaseAnswerRevealed
	}); err != nil {
		return "", err
	}
	return answer, nil
}

// SelectTeam picks the team Award uses when called without one.
func (c *Controller) SelectTeam(ctx context.Context, teamID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != quizboard.PhaseAnswerRevealed {
		return ErrNoRevealedAnswer
	}
	if !hasTeam(c.state.Teams, teamID) {
		return fmt.Errorf("%w: team %d", ErrNotFound, teamID)
	}
	return c.commit(ctx, func(s *quizboard.Session) { s.SelectedTeamID = teamID })
}

func hasTeam(teams []quizboard.Team, id int64) bool {
	for _, t := range teams {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Award gives the open question's points to teamID, or to the selected team
// when teamID is 0. The board is updated locally first; the remote writes are
// tracked in the pendingAward record until both have succeeded.
func (c *Controller) Award(ctx context.Context, teamID int64) error {
	done, err := c.guard.Begin("award")
	if err != nil {
		return err
	}
	defer done()

	p, err := c.applyAward(ctx, teamID)
	if err != nil {
		return err
	}
	c.logger.Info("points awarded", "game_id", p.GameID, "question_id", p.QuestionID, "team_id", p.TeamID, "points", p.Points)
	return c.settle(ctx, p)
}

func (c *Controller) applyAward(ctx context.Context, teamID int64) (quizboard.PendingAward, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != quizboard.PhaseAnswerRevealed {
		return quizboard.PendingAward{}, ErrNoRevealedAnswer
	}
	if c.pending.Stage != "" && c.pending.Stage != quizboard.AwardDone {
		return quizboard.PendingAward{}, fmt.Errorf("%w: question %d", ErrAwardPending, c.pending.QuestionID)
	}
	q, ok := c.state.OpenQuestion()
	if !ok {
		return quizboard.PendingAward{}, ErrNoOpenQuestion
	}
	if teamID == 0 {
		teamID = c.state.SelectedTeamID
	}
	if teamID == 0 {
		return quizboard.PendingAward{}, fmt.Errorf("%w: no team selected", ErrInvalidInput)
	}
	if !hasTeam(c.state.Teams, teamID) {
		return quizboard.PendingAward{}, fmt.Errorf("%w: team %d", ErrNotFound, teamID)
	}

	p := quizboard.PendingAward{
		GameID:     c.state.GameID,
		QuestionID: q.ID,
		TeamID:     teamID,
		Points:     q.Price,
		Stage:      quizboard.AwardPending,
	}
	if err := c.pendingAtom.Save(ctx, p); err != nil {
		return quizboard.PendingAward{}, err
	}
	c.pending = p

	if err := c.commit(ctx, func(s *quizboard.Session) {
		ci, qi, _ := quizboard.FindQuestion(s.Categories, q.ID)
		s.Categories[ci].Questions[qi].IsAnswered = true
		for i := range s.Teams {
			if s.Teams[i].ID == teamID {
				s.Teams[i].Score += q.Price
			}
		}
		s.OpenQuestionID = 0
		s.RevealedAnswer = ""
		s.SelectedTeamID = 0
		s.Phase = boardPhase(s.Categories)
	}); err != nil {
		// Nothing changed locally, so the record must not be replayed.
		if cerr := c.pendingAtom.Clear(ctx); cerr != nil {
			c.logger.Error("clearing pending award", "question_id", q.ID, "error", cerr)
		}
		c.pending = quizboard.PendingAward{}
		return quizboard.PendingAward{}, fmt.Errorf("recording award: %w", err)
	}
	if err := c.teamsAtom.Save(ctx, c.state.Teams); err != nil {
		c.logger.Warn("saving teams", "game_id", p.GameID, "error", err)
	}
	return p, nil
}

// ResumeAward replays the remote writes of an unsettled award. It does
// nothing when no award is pending.
func (c *Controller) ResumeAward(ctx context.Context) error {
	done, err := c.guard.Begin("award")
	if err != nil {
		return err
	}
	defer done()

	p, ok := c.PendingAward()
	if !ok {
		return nil
	}
	c.logger.Info("resuming award", "question_id", p.QuestionID, "team_id", p.TeamID, "stage", p.Stage)
	return c.settle(ctx, p)
}

// settle runs the remaining remote steps of p. The question is marked
// answered only while the stage is still pending.
func (c *Controller) settle(ctx context.Context, p quizboard.PendingAward) error {
	if p.Stage == quizboard.AwardPending {
		if err := c.remote.MarkAnswered(ctx, p.QuestionID); err != nil {
			c.logger.Error("marking question answered", "question_id", p.QuestionID, "error", err)
			return fmt.Errorf("award %s: marking question %d answered: %w", p.Stage, p.QuestionID, err)
		}
		p.Stage = quizboard.AwardAnsweredRemotePendingScore
		if err := c.savePending(ctx, p); err != nil {
			return err
		}
	}

	if p.Stage == quizboard.AwardAnsweredRemotePendingScore {
		if err := c.remote.AwardScore(ctx, p.TeamID, p.QuestionID, p.Points); err != nil {
			c.logger.Error("awarding score", "team_id", p.TeamID, "question_id", p.QuestionID, "error", err)
			return fmt.Errorf("award %s: scoring team %d: %w", p.Stage, p.TeamID, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.pendingAtom.Clear(ctx); err != nil {
		return err
	}
	c.pending = quizboard.PendingAward{}
	return nil
}

func (c *Controller) savePending(ctx context.Context, p quizboard.PendingAward) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.pendingAtom.Save(ctx, p); err != nil {
		return err
	}
	c.pending = p
	return nil
}

// Close hides the open question without answering it.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.OpenQuestionID == 0 {
		return nil
	}
	return c.commit(ctx, func(s *quizboard.Session) {
		s.OpenQuestionID = 0
		s.RevealedAnswer = ""
		s.SelectedTeamID = 0
		s.Phase = boardPhase(s.Categories)
	})
}
