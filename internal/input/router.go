// Package input maps presenter keyboard events onto game commands. The
// mapping mirrors the projection remote: left/space steps forward
// (right-to-left presentation order), up/down jump between questions.
package input

import (
	"github.com/27180781/trivia-master-offline/internal/game"
)

// Command is what a key press asks the session to do.
type Command int

const (
	CmdNone Command = iota
	CmdAdvance
	CmdRetreat
	CmdNextQuestion
	CmdPrevQuestion
	// CmdExitFullscreen only affects the presentation chrome, never the
	// phase.
	CmdExitFullscreen
)

func (c Command) String() string {
	switch c {
	case CmdAdvance:
		return "advance"
	case CmdRetreat:
		return "retreat"
	case CmdNextQuestion:
		return "nextQuestion"
	case CmdPrevQuestion:
		return "prevQuestion"
	case CmdExitFullscreen:
		return "exitFullscreen"
	}
	return "none"
}

// Route translates a DOM key value into a command given the current
// phase. While the session sits at standby every key is ignored except
// the advance key, which starts the show.
func Route(key string, phase game.Phase) Command {
	if phase == game.PhaseStandby {
		if isAdvanceKey(key) {
			return CmdAdvance
		}
		return CmdNone
	}

	switch key {
	case "ArrowRight":
		return CmdRetreat
	case "ArrowUp":
		return CmdPrevQuestion
	case "ArrowDown":
		return CmdNextQuestion
	case "Escape":
		return CmdExitFullscreen
	}
	if isAdvanceKey(key) {
		return CmdAdvance
	}
	return CmdNone
}

func isAdvanceKey(key string) bool {
	return key == "ArrowLeft" || key == " " || key == "Enter"
}
