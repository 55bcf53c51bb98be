package challenge

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/japaniel/cleverden/pkg/content"
	"github.com/japaniel/cleverden/pkg/logger"
	"github.com/japaniel/cleverden/pkg/shuffle"
)

// Timing of the timer-driven phases.
const (
	CountdownTick    = 800 * time.Millisecond
	GoDelay          = 600 * time.Millisecond
	RoundResultDelay = 1200 * time.Millisecond
	CountdownFrom    = 3
)

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	Clock       clock.Clock
	TotalRounds int
	// PoolSeed seeds the question pool shuffle; 0 derives one from the clock.
	PoolSeed uint64
	// OnChange receives every state change, including timer-driven ones.
	OnChange func(Snapshot)
	// OnFinished is called once per match when it reaches PhaseFinished.
	OnFinished func(Match)
	Logger     *logger.Logger
}

// Snapshot is an immutable view of the engine.
type Snapshot struct {
	Phase          Phase
	Match          Match
	Question       *content.MultipleChoice
	Options        []content.Option
	Locked         [2]bool
	Selected       [2]string
	RoundConcluded bool
	RoundWinner    Winner
}

// Engine drives one challenge. Commands and timer callbacks are serialised
// by a mutex; callbacks from timers that belong to an earlier match or a
// closed engine are discarded.
type Engine struct {
	mu         sync.Mutex
	clock      clock.Clock
	rounds     int
	rng        *shuffle.RNG
	onChange   func(Snapshot)
	onFinished func(Match)
	log        *logger.Logger

	match     Match
	phase     Phase
	questions []content.MultipleChoice
	used      map[string]bool

	question       *content.MultipleChoice
	options        []content.Option
	locked         [2]bool
	selected       [2]string
	roundConcluded bool
	roundWinner    Winner

	timer    *clock.Timer
	gen      uint64
	notified bool
	closed   bool
}

// New prepares a match on the multiple-choice steps of course. Call Start to
// begin the countdown.
func New(course content.Course, player1, player2 string, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.TotalRounds <= 0 {
		opts.TotalRounds = DefaultTotalRounds
	}
	seed := opts.PoolSeed
	if seed == 0 {
		seed = uint64(opts.Clock.Now().UnixNano())
	}
	e := &Engine{
		clock:      opts.Clock,
		rounds:     opts.TotalRounds,
		rng:        shuffle.New(seed),
		onChange:   opts.OnChange,
		onFinished: opts.OnFinished,
		log:        logger.OrNop(opts.Logger).With("course_id", course.ID),
		questions:  content.MultipleChoiceSteps(course),
	}
	e.resetMatch(player1, player2)
	return e
}

func (e *Engine) resetMatch(player1, player2 string) {
	e.match = Match{
		ID:          uuid.NewString(),
		Player1Name: player1,
		Player2Name: player2,
		TotalRounds: e.rounds,
	}
	e.phase = Phase{Kind: PhaseIdle}
	e.used = map[string]bool{}
	e.questions = shuffle.Slice(e.rng, e.questions)
	e.notified = false
	e.clearRound()
	e.question, e.options = nil, nil
}

func (e *Engine) clearRound() {
	e.locked = [2]bool{}
	e.selected = [2]string{}
	e.roundConcluded = false
	e.roundWinner = WinnerNone
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:          e.phase,
		Match:          e.match.clone(),
		Options:        append([]content.Option(nil), e.options...),
		Locked:         e.locked,
		Selected:       e.selected,
		RoundConcluded: e.roundConcluded,
		RoundWinner:    e.roundWinner,
	}
	if e.question != nil {
		q := *e.question
		s.Question = &q
	}
	return s
}

// Start begins the countdown. It does nothing once the match has started.
func (e *Engine) Start() Snapshot {
	e.mu.Lock()
	if e.closed || e.phase.Kind != PhaseIdle {
		s := e.snapshotLocked()
		e.mu.Unlock()
		return s
	}
	e.startCountdownLocked()
	return e.unlockAndNotify()
}

// Rematch starts a fresh match with the same players and a reshuffled pool.
func (e *Engine) Rematch() Snapshot {
	e.mu.Lock()
	if e.closed {
		s := e.snapshotLocked()
		e.mu.Unlock()
		return s
	}
	e.cancelTimerLocked()
	e.resetMatch(e.match.Player1Name, e.match.Player2Name)
	e.log.Info("challenge rematch", "match_id", e.match.ID)
	e.startCountdownLocked()
	return e.unlockAndNotify()
}

// Close stops pending timers; later commands and callbacks do nothing.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancelTimerLocked()
}

func (e *Engine) cancelTimerLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// after schedules fn under the engine lock, guarded by the current generation.
func (e *Engine) after(d time.Duration, fn func()) {
	gen := e.gen
	e.timer = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		if e.closed || gen != e.gen {
			e.mu.Unlock()
			return
		}
		e.timer = nil
		fn()
		e.unlockAndNotify()
	})
}

// unlockAndNotify releases the lock, then publishes the new state.
func (e *Engine) unlockAndNotify() Snapshot {
	s := e.snapshotLocked()
	var finished *Match
	if s.Phase.Kind == PhaseFinished && !e.notified {
		e.notified = true
		m := s.Match.clone()
		finished = &m
	}
	onChange, onFinished := e.onChange, e.onFinished
	e.mu.Unlock()

	if onChange != nil {
		onChange(s)
	}
	if finished != nil && onFinished != nil {
		onFinished(*finished)
	}
	return s
}

func (e *Engine) startCountdownLocked() {
	if len(e.questions) == 0 {
		e.log.Warn("challenge has no questions", "match_id", e.match.ID)
		e.phase = Phase{Kind: PhaseFinished}
		return
	}
	e.phase = Phase{Kind: PhaseCountdown, Count: CountdownFrom}
	e.after(CountdownTick, e.countdownTick)
}

func (e *Engine) countdownTick() {
	if e.phase.Kind != PhaseCountdown {
		return
	}
	if e.phase.Count > 1 {
		e.phase.Count--
		e.after(CountdownTick, e.countdownTick)
		return
	}
	e.phase = Phase{Kind: PhaseGo}
	e.after(GoDelay, e.startRound)
}

func (e *Engine) nextQuestion() (content.MultipleChoice, bool) {
	for _, q := range e.questions {
		if !e.used[q.ID] {
			e.used[q.ID] = true
			return q, true
		}
	}
	if len(e.questions) == 0 {
		return content.MultipleChoice{}, false
	}
	e.used = map[string]bool{}
	e.questions = shuffle.Slice(e.rng, e.questions)
	q := e.questions[0]
	e.used[q.ID] = true
	return q, true
}

func (e *Engine) startRound() {
	e.clearRound()
	q, ok := e.nextQuestion()
	if !ok {
		e.question, e.options = nil, nil
		e.phase = Phase{Kind: PhaseFinished}
		return
	}
	e.question = &q
	seed := shuffle.Seed(q.ID) + uint64(e.match.CurrentRound())
	e.options = shuffle.Seeded(seed, q.Options)
	e.phase = Phase{Kind: PhasePlaying}
	e.log.Debug("round started", "match_id", e.match.ID, "round", e.match.CurrentRound(), "question_id", q.ID)
}

// PlayerTap records player's answer. Taps outside PhasePlaying, from a
// locked-out player or for an option not on screen are ignored.
func (e *Engine) PlayerTap(player Player, optionID string) Snapshot {
	e.mu.Lock()
	if e.closed || e.phase.Kind != PhasePlaying || e.question == nil || !player.valid() || e.locked[player-1] {
		s := e.snapshotLocked()
		e.mu.Unlock()
		return s
	}
	if _, ok := e.question.Option(optionID); !ok {
		s := e.snapshotLocked()
		e.mu.Unlock()
		return s
	}

	e.selected[player-1] = optionID
	if optionID == e.question.CorrectOptionID {
		if player == Player1 {
			e.match.Player1Score++
		} else {
			e.match.Player2Score++
		}
		e.concludeRound(winnerOf(player))
	} else {
		e.locked[player-1] = true
		if e.locked[0] && e.locked[1] {
			e.concludeRound(WinnerNone)
		}
	}
	return e.unlockAndNotify()
}

func (e *Engine) concludeRound(w Winner) {
	e.roundConcluded = true
	e.roundWinner = w
	e.match.Results = append(e.match.Results, RoundResult{Winner: w, QuestionID: e.question.ID})
	e.phase = Phase{Kind: PhaseRoundResult, Winner: w}
	e.log.Debug("round concluded", "match_id", e.match.ID, "round", len(e.match.Results), "winner", w.String())
	e.after(RoundResultDelay, e.advance)
}

func (e *Engine) advance() {
	if e.match.IsFinished() {
		e.phase = Phase{Kind: PhaseFinished}
		e.log.Info("challenge finished", "match_id", e.match.ID,
			"player1_score", e.match.Player1Score, "player2_score", e.match.Player2Score)
		return
	}
	e.startRound()
}

// OptionState reports how optionID is shown on player's side.
func (e *Engine) OptionState(player Player, optionID string) OptionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.question == nil || !player.valid() {
		return OptionIdle
	}
	sel := e.selected[player-1]
	locked := e.locked[player-1]
	switch {
	case sel != "" && optionID == sel:
		if sel == e.question.CorrectOptionID {
			return OptionCorrect
		}
		return OptionWrong
	case sel != "" && e.roundConcluded && optionID == e.question.CorrectOptionID:
		return OptionCorrectReveal
	case locked:
		return OptionDisabled
	}
	return OptionIdle
}
