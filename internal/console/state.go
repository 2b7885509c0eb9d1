package console

import (
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/input"
	"github.com/tomz197/bomb-arena/internal/net/exchange"
	"github.com/tomz197/bomb-arena/internal/net/lockstep"
	"github.com/tomz197/bomb-arena/internal/net/message"
)

// Screen is the phase of the console client.
type Screen int

const (
	ScreenConnecting Screen = iota // Waiting for the session
	ScreenLobby                    // Connected, choosing a game
	ScreenNaming                   // Typing the name of a game
	ScreenWaiting                  // Waiting for the other players
	ScreenPlaying                  // In game
	ScreenResult                   // Game over
	ScreenRefused                  // Authentication refused
)

// String returns the name of the screen.
func (s Screen) String() string {
	switch s {
	case ScreenConnecting:
		return "connecting"
	case ScreenLobby:
		return "lobby"
	case ScreenNaming:
		return "naming"
	case ScreenWaiting:
		return "waiting"
	case ScreenPlaying:
		return "playing"
	case ScreenResult:
		return "result"
	case ScreenRefused:
		return "refused"
	}
	return "unknown"
}

// clientState holds what the console shows.
type clientState struct {
	screen     Screen
	prevScreen Screen
	running    bool
	input      input.Input

	server    message.HelloOK
	hasServer bool

	gameName string

	proposal    exchange.Proposal
	hasProposal bool
	accepted    bool

	launch  message.LaunchGame
	update  *exchange.GameUpdate
	runner  *lockstep.Runner
	started bool

	result  contest.Result
	refusal message.AuthenticationErrorCode
}

func newClientState() *clientState {
	return &clientState{
		screen:     ScreenConnecting,
		prevScreen: -1,
		running:    true,
		result:     contest.StillRunning(),
	}
}

// resetGame forgets the last requested game.
func (s *clientState) resetGame() {
	if s.update != nil {
		s.update.Stop()
	}

	s.proposal = exchange.Proposal{}
	s.hasProposal = false
	s.accepted = false
	s.update = nil
	s.runner = nil
	s.started = false
	s.result = contest.StillRunning()
}
