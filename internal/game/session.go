package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns one presentation run: the question list, the current
// position in the phase sequence, and the active-sound bookkeeping that
// keeps audio consistent with transitions. All transition methods are
// total: they either move or no-op, they never fail.
//
// Phase order per question is standby → options → answers → timer →
// reveal, with reveal advancing into the next question's options.
// Text-only slides short-circuit from options straight to the next
// question. A locked (packaged) session starts at options and standby is
// unreachable for it.
type Session struct {
	Code      string
	CreatedAt time.Time
	HostToken string
	Locked    bool

	settings  Settings
	questions []Question
	index     int
	phase     Phase
	muted     bool

	tickActive   bool
	revealActive bool

	mu sync.Mutex
}

func newSession(code string, cfg SessionConfig) *Session {
	s := &Session{
		Code:      code,
		CreatedAt: time.Now().UTC(),
		HostToken: uuid.NewString(),
		Locked:    cfg.Locked,
		settings:  cfg.Settings,
		phase:     PhaseStandby,
	}
	s.seed(cfg.Questions)
	if cfg.Locked {
		s.phase = PhaseOptions
	}
	return s
}

// seed replaces the question list wholesale. Negative authored points
// are floored here so nothing downstream displays a negative score.
func (s *Session) seed(questions []Question) {
	s.questions = make([]Question, len(questions))
	copy(s.questions, questions)
	for i := range s.questions {
		if p := s.questions[i].Points; p != nil && *p < 0 {
			zero := 0
			s.questions[i].Points = &zero
		}
	}
	s.index = 0
}

// Seed replaces the session's questions and returns to the initial
// phase, stopping whatever was playing.
func (s *Session) Seed(questions []Question) []SoundEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	fx := s.stopAll(nil)
	s.seed(questions)
	if s.Locked {
		s.phase = PhaseOptions
	} else {
		s.phase = PhaseStandby
	}
	return fx
}

func (s *Session) current() *Question {
	if s.index < 0 || s.index >= len(s.questions) {
		return nil
	}
	return &s.questions[s.index]
}

// Advance moves one step forward in the linear phase order. At the last
// question's reveal it is a no-op.
func (s *Session) Advance() []SoundEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fx []SoundEffect
	q := s.current()
	if q == nil {
		return fx
	}

	switch s.phase {
	case PhaseStandby:
		s.phase = PhaseOptions
	case PhaseOptions:
		if q.IsTextOnly {
			// Text-only slides skip answers, timer, and reveal.
			if s.index < len(s.questions)-1 {
				s.index++
				s.phase = PhaseOptions
			}
			return fx
		}
		s.phase = PhaseAnswers
	case PhaseAnswers:
		s.phase = PhaseTimer
		fx = s.startTick(fx)
	case PhaseTimer:
		fx = s.stopTick(fx)
		s.phase = PhaseReveal
		if !q.IsSurvey {
			fx = s.startReveal(fx)
		}
	case PhaseReveal:
		if s.index < len(s.questions)-1 {
			fx = s.stopReveal(fx)
			s.index++
			s.phase = PhaseOptions
		}
	}
	return fx
}

// Retreat moves one step backward. Crossing back over a question
// boundary re-enters the previous question at reveal (or options for a
// text-only slide). It stops at standby, or at the first question's
// options for a locked session.
func (s *Session) Retreat() []SoundEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fx []SoundEffect
	switch s.phase {
	case PhaseStandby:
		// nothing before standby
	case PhaseOptions:
		if s.index == 0 {
			if !s.Locked {
				s.phase = PhaseStandby
			}
			return fx
		}
		s.index--
		prev := s.current()
		if prev.IsTextOnly {
			s.phase = PhaseOptions
			return fx
		}
		s.phase = PhaseReveal
		if !prev.IsSurvey {
			fx = s.startReveal(fx)
		}
	case PhaseAnswers:
		s.phase = PhaseOptions
	case PhaseTimer:
		fx = s.stopTick(fx)
		s.phase = PhaseAnswers
	case PhaseReveal:
		fx = s.stopReveal(fx)
		s.phase = PhaseTimer
		fx = s.startTick(fx)
	}
	return fx
}

// NextQuestion jumps to the next question's options. Sounds always stop,
// even when the jump itself is a no-op at the last question.
func (s *Session) NextQuestion() []SoundEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	fx := s.stopAll(nil)
	if s.index < len(s.questions)-1 {
		s.index++
		s.phase = PhaseOptions
	}
	return fx
}

// PrevQuestion jumps to the previous question's options, mirroring
// NextQuestion.
func (s *Session) PrevQuestion() []SoundEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	fx := s.stopAll(nil)
	if s.index > 0 {
		s.index--
		s.phase = PhaseOptions
	}
	return fx
}

// Reset returns unconditionally to the first question's initial phase.
func (s *Session) Reset() []SoundEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	fx := s.stopAll(nil)
	s.index = 0
	if s.Locked {
		s.phase = PhaseOptions
	} else {
		s.phase = PhaseStandby
	}
	return fx
}

// TickFinished is called when the countdown reaches zero on its own: the
// tick sound stops but the phase stays put, advancing remains a
// deliberate host action.
func (s *Session) TickFinished() []SoundEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopTick(nil)
}

// ToggleMute flips the mute flag and reports the new value. Muting is a
// dispatch-time concern; the machine keeps emitting effects so the
// active-sound bookkeeping stays correct.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	return s.muted
}

// Muted reports whether sound effects should be suppressed.
func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Settings returns the session's resolved presentation settings.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSettings replaces the session's settings, as a package import does
// before reseeding. State snapshots racing the swap see either the old
// or the new settings, never a mix.
func (s *Session) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// State returns a snapshot for broadcasting.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Code:          s.Code,
		Index:         s.index,
		Phase:         s.phase,
		QuestionCount: len(s.questions),
		Locked:        s.Locked,
		Muted:         s.muted,
		Settings:      s.settings,
	}
	if q := s.current(); q != nil {
		copied := *q
		copied.Answers = append([]string(nil), q.Answers...)
		st.Question = &copied
	}
	return st
}

// Questions returns a copy of the session's question list.
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// The start/stop helpers keep the active-sound flags and the emitted
// effects in lockstep. Starting is idempotent: an already active sound
// is not restarted.

func (s *Session) startTick(fx []SoundEffect) []SoundEffect {
	if s.tickActive {
		return fx
	}
	s.tickActive = true
	return append(fx, SoundStartTick)
}

func (s *Session) stopTick(fx []SoundEffect) []SoundEffect {
	if !s.tickActive {
		return fx
	}
	s.tickActive = false
	return append(fx, SoundStopTick)
}

func (s *Session) startReveal(fx []SoundEffect) []SoundEffect {
	if s.revealActive {
		return fx
	}
	s.revealActive = true
	return append(fx, SoundStartReveal)
}

func (s *Session) stopReveal(fx []SoundEffect) []SoundEffect {
	if !s.revealActive {
		return fx
	}
	s.revealActive = false
	return append(fx, SoundStopReveal)
}

func (s *Session) stopAll(fx []SoundEffect) []SoundEffect {
	s.tickActive = false
	s.revealActive = false
	return append(fx, SoundStopAll)
}
