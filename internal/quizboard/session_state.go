package quizboard

// Phase is the live session's position in its question loop.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseLoaded         Phase = "loaded"
	PhaseQuestionOpen   Phase = "questionOpen"
	PhaseAnswerRevealed Phase = "answerRevealed"
	PhaseFinished       Phase = "finished"
)

// Session is the persisted state of a live game.
type Session struct {
	Phase          Phase      `json:"phase"`
	GameID         int64      `json:"gameId"`
	Categories     []Category `json:"categories"`
	Teams          []Team     `json:"teams"`
	OpenQuestionID int64      `json:"openQuestionId,omitempty"`
	RevealedAnswer string     `json:"revealedAnswer,omitempty"`
	SelectedTeamID int64      `json:"selectedTeamId,omitempty"`
}

// NewSession returns an idle session with no data.
func NewSession() Session {
	return Session{Phase: PhaseIdle, Categories: []Category{}, Teams: []Team{}}
}

func (s Session) Clone() Session {
	s.Categories = CloneCategories(s.Categories)
	s.Teams = CloneTeams(s.Teams)
	return s
}

// OpenQuestion returns the open question, if any.
func (s Session) OpenQuestion() (Question, bool) {
	if s.OpenQuestionID == 0 {
		return Question{}, false
	}
	ci, qi, ok := FindQuestion(s.Categories, s.OpenQuestionID)
	if !ok {
		return Question{}, false
	}
	return s.Categories[ci].Questions[qi], true
}

// AwardStage records how far an award has progressed against the remote store.
type AwardStage string

const (
	AwardPending                    AwardStage = "pending"
	AwardAnsweredRemotePendingScore AwardStage = "answered-remote-pending-score"
	AwardDone                       AwardStage = "done"
)

// PendingAward is the durable record of an award saga in progress.
type PendingAward struct {
	GameID     int64      `json:"gameId"`
	QuestionID int64      `json:"questionId"`
	TeamID     int64      `json:"teamId"`
	Points     int        `json:"points"`
	Stage      AwardStage `json:"stage"`
}
