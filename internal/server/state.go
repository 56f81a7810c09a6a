package server

// State tracks where a candidate is in its lifecycle. Failed is
// terminal; only Ready servers receive load traffic.
type State string

const (
	Unbuilt  State = "unbuilt"
	Built    State = "built"
	Starting State = "starting"
	Ready    State = "ready"
	Stopped  State = "stopped"
	Failed   State = "failed"
)

var transitions = map[State][]State{
	// Unbuilt may go straight to Starting when the build step is skipped.
	Unbuilt:  {Built, Starting, Failed},
	Built:    {Starting, Failed},
	Starting: {Ready, Failed},
	Ready:    {Stopped},
	Stopped:  {},
	Failed:   {},
}

func (s State) canBecome(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
