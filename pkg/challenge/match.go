// Package challenge runs a timed two-player head-to-head quiz on one device.
package challenge

import "fmt"

// DefaultTotalRounds is the length of a match.
const DefaultTotalRounds = 5

// Player identifies one of the two seats.
type Player int

const (
	Player1 Player = 1
	Player2 Player = 2
)

func (p Player) valid() bool { return p == Player1 || p == Player2 }

// Winner of a round.
type Winner int

const (
	WinnerNone Winner = iota
	WinnerPlayer1
	WinnerPlayer2
)

func (w Winner) String() string {
	switch w {
	case WinnerNone:
		return "none"
	case WinnerPlayer1:
		return "player1"
	case WinnerPlayer2:
		return "player2"
	}
	return fmt.Sprintf("Winner(%d)", int(w))
}

func winnerOf(p Player) Winner {
	if p == Player1 {
		return WinnerPlayer1
	}
	return WinnerPlayer2
}

// RoundResult is appended to a Match once per concluded round.
type RoundResult struct {
	Winner     Winner
	QuestionID string
}

// Match is the score sheet of one challenge.
type Match struct {
	ID           string
	Player1Name  string
	Player2Name  string
	TotalRounds  int
	Player1Score int
	Player2Score int
	Results      []RoundResult
}

// CurrentRound is the 1-based number of the round being played.
func (m Match) CurrentRound() int {
	return len(m.Results) + 1
}

// IsFinished reports whether every round has a result.
func (m Match) IsFinished() bool {
	return len(m.Results) >= m.TotalRounds
}

// WinnerName is the name of the higher scorer of a finished match, or "" for
// a tie or an unfinished match.
func (m Match) WinnerName() string {
	if !m.IsFinished() {
		return ""
	}
	switch {
	case m.Player1Score > m.Player2Score:
		return m.Player1Name
	case m.Player2Score > m.Player1Score:
		return m.Player2Name
	}
	return ""
}

// IsTie reports a finished match with equal scores.
func (m Match) IsTie() bool {
	return m.IsFinished() && m.Player1Score == m.Player2Score
}

func (m Match) clone() Match {
	m.Results = append([]RoundResult(nil), m.Results...)
	return m
}

// PhaseKind enumerates the engine phases.
type PhaseKind int

const (
	PhaseIdle PhaseKind = iota
	PhaseCountdown
	PhaseGo
	PhasePlaying
	PhaseRoundResult
	PhaseFinished
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseGo:
		return "go"
	case PhasePlaying:
		return "playing"
	case PhaseRoundResult:
		return "roundResult"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("PhaseKind(%d)", int(k))
}

// Phase is the current phase; Count is set for PhaseCountdown and Winner for
// PhaseRoundResult.
type Phase struct {
	Kind   PhaseKind
	Count  int
	Winner Winner
}

func (p Phase) String() string {
	switch p.Kind {
	case PhaseCountdown:
		return fmt.Sprintf("countdown(%d)", p.Count)
	case PhaseRoundResult:
		return fmt.Sprintf("roundResult(%s)", p.Winner)
	}
	return p.Kind.String()
}

// OptionState is how an option is shown on one player's side.
type OptionState int

const (
	OptionIdle OptionState = iota
	OptionCorrect
	OptionWrong
	OptionDisabled
	// OptionCorrectReveal shows the right answer after the round concluded.
	OptionCorrectReveal
)

func (s OptionState) String() string {
	switch s {
	case OptionIdle:
		return "idle"
	case OptionCorrect:
		return "correct"
	case OptionWrong:
		return "wrong"
	case OptionDisabled:
		return "disabled"
	case OptionCorrectReveal:
		return "correctReveal"
	}
	return fmt.Sprintf("OptionState(%d)", int(s))
}
