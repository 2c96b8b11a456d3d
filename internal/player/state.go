package player

// State is the transport state derived from an endpoint.
//
//	┌──────────┐   SetPlaying(true)   ┌──────────┐
//	│  Stopped │ ───────────────────▶ │  Playing │
//	└──────────┘                      └──────────┘
//	     ▲  ▲                           │      ▲
//	     │  │ completion     SetPlaying │      │ SetPlaying
//	     │  └─────────────────── (false)│      │ (true)
//	     │                              ▼      │
//	     │   SetCurrentTime(0)       ┌──────────┐
//	     └───────────────────────────│  Paused  │
//	                                 └──────────┘
//
// Stopped means not playing at position zero, or no source bound. Paused
// means not playing at a non-zero position.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

func stateOf(bound, playing bool, pos int64) State {
	switch {
	case !bound:
		return Stopped
	case playing:
		return Playing
	case pos > 0:
		return Paused
	}
	return Stopped
}
