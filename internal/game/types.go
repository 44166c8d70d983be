package game

// Phase is one sub-step of presenting a single question.
type Phase string

const (
	PhaseStandby Phase = "standby"
	PhaseOptions Phase = "options"
	PhaseAnswers Phase = "answers"
	PhaseTimer   Phase = "timer"
	PhaseReveal  Phase = "reveal"
)

// SoundEffect is a side-effect request emitted by a phase transition.
// The state machine never plays audio itself; callers forward these to
// whatever is driving the speakers.
type SoundEffect string

const (
	SoundStartTick   SoundEffect = "startTick"
	SoundStopTick    SoundEffect = "stopTick"
	SoundStartReveal SoundEffect = "startReveal"
	SoundStopReveal  SoundEffect = "stopReveal"
	SoundStopAll     SoundEffect = "stopAll"
)

// Question is one validated trivia item. The JSON field names match the
// .bravo bundle format, so ingested and packaged questions are
// interchangeable.
type Question struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
	// CorrectAnswerIndex is zero-based into Answers; nil for survey and
	// text-only questions.
	CorrectAnswerIndex *int `json:"correctAnswerIndex"`
	// TimeLimit is in seconds. 0 for text-only slides, 30 otherwise
	// unless the sheet overrides it.
	TimeLimit int `json:"timeLimit"`
	// Points is stored as authored, including negative values. Session
	// seeding floors negatives at zero before anything displays them.
	Points     *int `json:"points,omitempty"`
	IsSurvey   bool `json:"isSurvey"`
	IsTextOnly bool `json:"isTextOnly"`
}

// Settings are the resolved presentation settings a session reads once at
// seed time.
type Settings struct {
	CustomBackground string `json:"customBackground,omitempty"`
	TimerSound       string `json:"timerSound,omitempty"`
	CorrectSound     string `json:"correctSound,omitempty"`
	WrongSound       string `json:"wrongSound,omitempty"`
	DefaultTimeLimit int    `json:"defaultTimeLimit"`
	ShowPoints       bool   `json:"showPoints"`
}

// DefaultSettings returns the out-of-the-box presentation settings.
func DefaultSettings() Settings {
	return Settings{DefaultTimeLimit: 30, ShowPoints: true}
}

// SessionConfig seeds a new session. Locked is resolved once at startup
// from the presence of a packaged game; it is never read from ambient
// state after that.
type SessionConfig struct {
	Locked    bool       `json:"locked"`
	Questions []Question `json:"questions"`
	Settings  Settings   `json:"settings"`
}

// State is a read-only snapshot of a session, safe to serialize.
type State struct {
	Code          string    `json:"sessionCode"`
	Index         int       `json:"currentQuestionIndex"`
	Phase         Phase     `json:"phase"`
	Question      *Question `json:"question,omitempty"`
	QuestionCount int       `json:"questionCount"`
	Locked        bool      `json:"locked"`
	Muted         bool      `json:"muted"`
	Settings      Settings  `json:"settings"`
}
