// Package reveal gates the staged appearance of a result page: the header is
// typed out first, then the body list appears, then the hot topics panel.
// Timing belongs to the view; this package only decides which stage may
// follow which completion signal.
package reveal

// Stage is one step of the reveal order.
type Stage int

const (
	// Idle: no result to show yet.
	Idle Stage = iota
	// HeaderTyping: the header is being typed out.
	HeaderTyping
	// HeaderDone: the header is complete; passes straight to BodyVisible.
	HeaderDone
	// BodyVisible: the result list is shown.
	BodyVisible
	// SidePanelVisible: the hot topics panel is shown.
	SidePanelVisible
	// AllDone: the page is fully revealed.
	AllDone
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case HeaderTyping:
		return "header-typing"
	case HeaderDone:
		return "header-done"
	case BodyVisible:
		return "body-visible"
	case SidePanelVisible:
		return "side-panel-visible"
	case AllDone:
		return "all-done"
	default:
		return "unknown"
	}
}

// Signal is a completion event raised by the view.
type Signal int

const (
	// SignalHeaderDone: the header finished typing.
	SignalHeaderDone Signal = iota + 1
	// SignalBodyDone: the body list finished appearing.
	SignalBodyDone
	// SignalSidePanelDone: the hot topics panel finished appearing.
	SignalSidePanelDone
)

func (s Signal) String() string {
	switch s {
	case SignalHeaderDone:
		return "header-done"
	case SignalBodyDone:
		return "body-done"
	case SignalSidePanelDone:
		return "side-panel-done"
	default:
		return "unknown"
	}
}

// Sequencer is the per-session reveal state machine. Each session is
// identified by an epoch; signals carrying another epoch are dropped.
type Sequencer struct {
	stage        Stage
	epoch        uint64
	hasHotTopics bool

	// OnTransition, when set, is called for every stage change including
	// resets.
	OnTransition func(from, to Stage)
}

// New returns a sequencer at Idle with epoch zero.
func New() *Sequencer {
	return &Sequencer{}
}

// Stage returns the current stage.
func (s *Sequencer) Stage() Stage { return s.stage }

// Epoch returns the session epoch the sequencer currently accepts.
func (s *Sequencer) Epoch() uint64 { return s.epoch }

// Reached reports whether the sequencer is at or past stage.
func (s *Sequencer) Reached(stage Stage) bool { return s.stage >= stage }

// Reset returns to Idle for a new session. Signals from earlier epochs are
// ignored afterwards.
func (s *Sequencer) Reset(epoch uint64) {
	s.epoch = epoch
	s.hasHotTopics = false
	s.move(Idle)
}

// Begin starts typing the header once a result (possibly empty) has
// arrived. It only fires from Idle.
func (s *Sequencer) Begin(hasHotTopics bool) bool {
	if s.stage != Idle {
		return false
	}
	s.hasHotTopics = hasHotTopics
	s.move(HeaderTyping)
	return true
}

// Signal applies a completion signal raised for epoch. It reports whether
// the signal moved the sequencer.
func (s *Sequencer) Signal(epoch uint64, sig Signal) bool {
	if epoch != s.epoch {
		return false
	}
	switch {
	case sig == SignalHeaderDone && s.stage == HeaderTyping:
		s.move(HeaderDone)
		s.move(BodyVisible)
		return true
	case sig == SignalBodyDone && s.stage == BodyVisible:
		if s.hasHotTopics {
			s.move(SidePanelVisible)
		} else {
			s.move(AllDone)
		}
		return true
	case sig == SignalSidePanelDone && s.stage == SidePanelVisible:
		s.move(AllDone)
		return true
	}
	return false
}

func (s *Sequencer) move(to Stage) {
	from := s.stage
	s.stage = to
	if s.OnTransition != nil && from != to {
		s.OnTransition(from, to)
	}
}
