package setup_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/playperu/quizboard/internal/atoms"
	"github.com/playperu/quizboard/internal/boardapi"
	"github.com/playperu/quizboard/internal/boardtest"
	"github.com/playperu/quizboard/internal/database"
	"github.com/playperu/quizboard/internal/inflight"
	"github.com/playperu/quizboard/internal/quizboard"
	"github.com/playperu/quizboard/internal/setup"
)

func newStore(t *testing.T) atoms.Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := atoms.NewDBStore(ctx, db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return store
}

func newMachine(t *testing.T, store atoms.Store, remote setup.Remote) *setup.Machine {
	t.Helper()
	m, err := setup.New(context.Background(), store, remote, boardtest.Logger())
	if err != nil {
		t.Fatalf("setup.New: %v", err)
	}
	return m
}

func liveRemote(t *testing.T) *boardapi.Client {
	t.Helper()
	b := boardtest.New(t)
	return boardapi.New(b.URL(), boardapi.WithLogger(boardtest.Logger()))
}

// flakyRemote fails the calls named in fail and otherwise hands out ids.
type flakyRemote struct {
	mu     sync.Mutex
	fail   map[string]bool
	nextID int64
	calls  []string
	block  chan struct{}
}

var errUnavailable = errors.New("service unavailable")

func (f *flakyRemote) call(name string) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[name] {
		return 0, errUnavailable
	}
	f.nextID++
	return f.nextID, nil
}

func (f *flakyRemote) CreateGame(_ context.Context, name string) (quizboard.Game, error) {
	id, err := f.call("game")
	return quizboard.Game{ID: id, Name: name, Status: quizboard.GameStatusNotStarted}, err
}

func (f *flakyRemote) CreateCategory(_ context.Context, name string, _ int64) (quizboard.Category, error) {
	id, err := f.call("category")
	return quizboard.Category{ID: id, Name: name}, err
}

func (f *flakyRemote) CreateQuestion(_ context.Context, req boardapi.CreateQuestionRequest) (quizboard.Question, error) {
	id, err := f.call("question")
	return quizboard.Question{ID: id, Text: req.Text, Price: req.Price, Answer: req.Answer}, err
}

func (f *flakyRemote) CreateTeam(_ context.Context, name string, gameID int64) (quizboard.Team, error) {
	id, err := f.call("team")
	return quizboard.Team{ID: id, Name: name, GameID: gameID}, err
}

func TestWizardAgainstBackend(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := newMachine(t, store, liveRemote(t))

	if err := m.SetGameName(ctx, "  Quiz Night "); err != nil {
		t.Fatalf("SetGameName: %v", err)
	}
	if err := m.CommitGame(ctx); err != nil {
		t.Fatalf("CommitGame: %v", err)
	}

	st := m.State()
	if st.GameID == 0 {
		t.Fatal("expected game id after commit")
	}
	if st.Step != quizboard.StepCategories {
		t.Errorf("step = %s, want categories", st.Step)
	}
	if st.GameName != "Quiz Night" {
		t.Errorf("name = %q, want trimmed", st.GameName)
	}

	history, err := m.AddCategory(ctx, "History")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if _, err := m.AddCategory(ctx, "Science"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if _, err := m.AddQuestion(ctx, 0, "Year of moon landing?", 200, "1969"); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if _, err := m.AddQuestion(ctx, 1, "H2O is?", 0, "Water"); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if _, err := m.AddQuestion(ctx, 0, "First emperor of Rome?", 400, "Augustus"); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	if err := m.Advance(ctx, quizboard.StepTeams); err != nil {
		t.Fatalf("Advance teams: %v", err)
	}
	alpha, err := m.AddTeam(ctx, "Alpha")
	if err != nil {
		t.Fatalf("AddTeam: %v", err)
	}
	if alpha.Score != 0 || alpha.GameID != st.GameID {
		t.Errorf("team = %+v", alpha)
	}

	st = m.State()
	if st.Categories[0].ID != history.ID {
		t.Errorf("first category id = %d, want %d", st.Categories[0].ID, history.ID)
	}
	var got [][]string
	for _, c := range st.Categories {
		var texts []string
		for _, q := range c.Questions {
			texts = append(texts, q.Text)
			if q.IsAnswered {
				t.Errorf("question %q created answered", q.Text)
			}
		}
		got = append(got, texts)
	}
	want := [][]string{
		{"Year of moon landing?", "First emperor of Rome?"},
		{"H2O is?"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("question placement (-want +got):\n%s", diff)
	}
	if p := st.Categories[1].Questions[0].Price; p != quizboard.DefaultQuestionPrice {
		t.Errorf("default price = %d, want %d", p, quizboard.DefaultQuestionPrice)
	}

	// A fresh machine over the same store sees the same wizard.
	reloaded := newMachine(t, store, liveRemote(t))
	if diff := cmp.Diff(st, reloaded.State()); diff != "" {
		t.Errorf("reloaded state (-want +got):\n%s", diff)
	}
}

func TestRemoteFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	remote := &flakyRemote{fail: map[string]bool{"game": true}}
	m := newMachine(t, newStore(t), remote)

	m.SetGameName(ctx, "Quiz Night")
	before := m.State()

	if err := m.CommitGame(ctx); !errors.Is(err, errUnavailable) {
		t.Fatalf("CommitGame err = %v, want errUnavailable", err)
	}
	if diff := cmp.Diff(before, m.State()); diff != "" {
		t.Errorf("state changed after failure (-before +after):\n%s", diff)
	}

	// Retry succeeds once the service recovers.
	remote.fail["game"] = false
	if err := m.CommitGame(ctx); err != nil {
		t.Fatalf("retry CommitGame: %v", err)
	}

	remote.fail["category"] = true
	before = m.State()
	if _, err := m.AddCategory(ctx, "History"); !errors.Is(err, errUnavailable) {
		t.Fatalf("AddCategory err = %v", err)
	}
	remote.fail["team"] = true
	if _, err := m.AddTeam(ctx, "Alpha"); !errors.Is(err, errUnavailable) {
		t.Fatalf("AddTeam err = %v", err)
	}
	if diff := cmp.Diff(before, m.State()); diff != "" {
		t.Errorf("state changed after failure (-before +after):\n%s", diff)
	}
}

// failingStore refuses writes to one key.
type failingStore struct {
	atoms.Store
	key string
}

var errDiskFull = errors.New("disk full")

func (f *failingStore) Put(ctx context.Context, key string, value json.RawMessage) error {
	if key == f.key {
		return errDiskFull
	}
	return f.Store.Put(ctx, key, value)
}

func TestCommitGameSaveFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: newStore(t)}
	m := newMachine(t, store, &flakyRemote{})
	m.SetGameName(ctx, "Quiz Night")
	before := m.State()

	store.key = atoms.KeyGameName
	if err := m.CommitGame(ctx); !errors.Is(err, errDiskFull) {
		t.Fatalf("CommitGame err = %v, want errDiskFull", err)
	}
	if diff := cmp.Diff(before, m.State()); diff != "" {
		t.Errorf("state changed after failed save (-before +after):\n%s", diff)
	}
	if st := newMachine(t, store, &flakyRemote{}).State(); st.GameID != 0 || st.Step != quizboard.StepGameName {
		t.Errorf("restored state advanced: game %d step %s", st.GameID, st.Step)
	}

	store.key = ""
	if err := m.CommitGame(ctx); err != nil {
		t.Fatalf("retry CommitGame: %v", err)
	}
	if st := m.State(); st.GameID == 0 || st.Step != quizboard.StepCategories {
		t.Errorf("after retry: game %d step %s", st.GameID, st.Step)
	}
}

func TestInvalidInputIsRefused(t *testing.T) {
	ctx := context.Background()
	remote := &flakyRemote{}
	m := newMachine(t, newStore(t), remote)

	if err := m.CommitGame(ctx); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("CommitGame blank name err = %v", err)
	}
	if _, err := m.AddCategory(ctx, "History"); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("AddCategory without game err = %v", err)
	}
	if _, err := m.AddTeam(ctx, "Alpha"); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("AddTeam without game err = %v", err)
	}

	m.SetGameName(ctx, "Quiz Night")
	if err := m.CommitGame(ctx); err != nil {
		t.Fatalf("CommitGame: %v", err)
	}

	if _, err := m.AddCategory(ctx, "   "); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("blank category err = %v", err)
	}
	if _, err := m.AddQuestion(ctx, 0, "Q?", 100, "A"); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("question without category err = %v", err)
	}
	m.AddCategory(ctx, "History")
	if _, err := m.AddQuestion(ctx, 0, " ", 100, "A"); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("blank question err = %v", err)
	}
	if _, err := m.AddQuestion(ctx, 0, "Q?", -5, "A"); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("negative price err = %v", err)
	}
	if err := m.SetGameName(ctx, "Renamed"); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("rename after commit err = %v", err)
	}

	// Only the game and one category reached the remote.
	if diff := cmp.Diff([]string{"game", "category"}, remote.calls); diff != "" {
		t.Errorf("remote calls (-want +got):\n%s", diff)
	}
}

func TestStepTransitions(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t, newStore(t), &flakyRemote{})

	if err := m.Advance(ctx, quizboard.StepCategories); !errors.Is(err, quizboard.ErrInvalidTransition) {
		t.Errorf("advance without game err = %v", err)
	}

	m.SetGameName(ctx, "Quiz Night")
	m.CommitGame(ctx)
	m.AddCategory(ctx, "History")

	if err := m.Advance(ctx, quizboard.StepReview); !errors.Is(err, quizboard.ErrInvalidTransition) {
		t.Errorf("skip to review err = %v", err)
	}
	if err := m.Advance(ctx, quizboard.StepTeams); err != nil {
		t.Fatalf("Advance teams: %v", err)
	}
	if err := m.Retreat(ctx, quizboard.StepGameName); err != nil {
		t.Fatalf("Retreat: %v", err)
	}
	if got := len(m.State().Categories); got != 1 {
		t.Errorf("categories after retreat = %d, want 1", got)
	}
	if err := m.Retreat(ctx, quizboard.StepTeams); !errors.Is(err, quizboard.ErrInvalidTransition) {
		t.Errorf("retreat forward err = %v", err)
	}

	// Committing an existing game only moves forward again.
	if err := m.CommitGame(ctx); err != nil {
		t.Fatalf("CommitGame again: %v", err)
	}
	if st := m.State(); st.Step != quizboard.StepCategories {
		t.Errorf("step = %s, want categories", st.Step)
	}
}

func TestCompleteAndReset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	m := newMachine(t, store, &flakyRemote{})

	m.SetGameName(ctx, "Quiz Night")
	m.CommitGame(ctx)
	m.Advance(ctx, quizboard.StepTeams)
	m.AddTeam(ctx, "Alpha")

	if _, err := m.Complete(ctx); !errors.Is(err, setup.ErrInvalidInput) {
		t.Errorf("Complete before review err = %v", err)
	}
	m.Advance(ctx, quizboard.StepReview)

	cg, err := m.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if cg.Name != "Quiz Night" || len(cg.Teams) != 1 || cg.Status != quizboard.GameStatusNotStarted {
		t.Errorf("current game = %+v", cg)
	}
	stored, _ := atoms.New(store, atoms.KeyCurrentGame, quizboard.CurrentGame{}).Load(ctx)
	if diff := cmp.Diff(cg, stored); diff != "" {
		t.Errorf("stored current game (-want +got):\n%s", diff)
	}

	atoms.New(store, atoms.KeyStartText, true).Save(ctx, false)
	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if diff := cmp.Diff(quizboard.NewGameSetupState(), m.State()); diff != "" {
		t.Errorf("state after reset (-want +got):\n%s", diff)
	}
	if show, _ := atoms.New(store, atoms.KeyStartText, false).Load(ctx); !show {
		t.Error("expected startText true after reset")
	}
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	ctx := context.Background()
	remote := &flakyRemote{}
	m := newMachine(t, newStore(t), remote)
	m.SetGameName(ctx, "Quiz Night")
	m.CommitGame(ctx)

	remote.mu.Lock()
	remote.block = make(chan struct{})
	remote.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		_, err := m.AddTeam(ctx, "Alpha")
		errc <- err
	}()

	for !m.Busy("addTeam") {
	}
	if _, err := m.AddTeam(ctx, "Alpha"); !errors.Is(err, inflight.ErrInFlight) {
		t.Errorf("duplicate AddTeam err = %v, want ErrInFlight", err)
	}

	close(remote.block)
	if err := <-errc; err != nil {
		t.Fatalf("first AddTeam: %v", err)
	}
	if got := len(m.State().Teams); got != 1 {
		t.Errorf("teams = %d, want 1", got)
	}
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	ctx := context.Background()
	remote := &flakyRemote{}
	m := newMachine(t, newStore(t), remote)
	m.SetGameName(ctx, "Quiz Night")
	m.CommitGame(ctx)

	remote.mu.Lock()
	remote.block = make(chan struct{})
	remote.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		_, err := m.AddCategory(ctx, "History")
		errc <- err
	}()
	for !m.Busy("addCategory") {
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	close(remote.block)

	if err := <-errc; !errors.Is(err, setup.ErrReset) {
		t.Errorf("AddCategory err = %v, want ErrReset", err)
	}
	if got := len(m.State().Categories); got != 0 {
		t.Errorf("categories = %d, want 0", got)
	}
}
