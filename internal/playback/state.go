package playback

import "github.com/llehouerou/unitplayer/internal/player"

// State is the transport state reported to subscribers. Values match
// player.State.
type State int

const (
	StateStopped = State(player.Stopped)
	StatePlaying = State(player.Playing)
	StatePaused  = State(player.Paused)
)

func (s State) String() string {
	return player.State(s).String()
}

func fromPlayerState(ps player.State) State {
	switch ps {
	case player.Playing, player.Paused:
		return State(ps)
	}
	return StateStopped
}
