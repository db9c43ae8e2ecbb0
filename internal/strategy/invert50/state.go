package invert50

import "fmt"

// State is a detector state.
type State int

const (
	SeekingTrend State = iota
	PullbackConfirmed
	SeekingTrigger
)

func (s State) String() string {
	switch s {
	case SeekingTrend:
		return "seeking_trend"
	case PullbackConfirmed:
		return "pullback_confirmed"
	case SeekingTrigger:
		return "seeking_trigger"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type event int

const (
	evPullback  event = iota // trend holds and the bar touched the slow line
	evArm                    // pullback confirmed, wait for the trigger from the next bar on
	evTrendLost              // alignment broke while waiting
	evTriggered              // trigger bar seen, signal emitted or discarded
)

func (e event) String() string {
	switch e {
	case evPullback:
		return "pullback"
	case evArm:
		return "arm"
	case evTrendLost:
		return "trend_lost"
	case evTriggered:
		return "triggered"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var transitions = map[State]map[event]State{
	SeekingTrend:      {evPullback: PullbackConfirmed},
	PullbackConfirmed: {evArm: SeekingTrigger},
	SeekingTrigger:    {evTrendLost: SeekingTrend, evTriggered: SeekingTrend},
}

// machine is the per-run state. A fresh machine is built for every Detect call.
type machine struct {
	state State
}

// fire applies ev. Events not in the table for the current state are rejected.
func (m *machine) fire(ev event) error {
	next, ok := transitions[m.state][ev]
	if !ok {
		return fmt.Errorf("no transition from %s on %s", m.state, ev)
	}
	m.state = next
	return nil
}
