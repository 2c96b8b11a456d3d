package cli

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/unitplayer/internal/engine"
	"github.com/llehouerou/unitplayer/internal/errmsg"
	"github.com/llehouerou/unitplayer/internal/logger"
	"github.com/llehouerou/unitplayer/internal/player"
	"github.com/llehouerou/unitplayer/internal/state"
)

// newEngine creates a controller over out from the [engine] section.
// rate overrides the configured sample rate when positive.
func (a *app) newEngine(out engine.Output, rate int) (*engine.Controller, error) {
	ec := a.cfg.GetEngineConfig()
	if rate > 0 {
		ec.SampleRate = rate
	}
	ctrl, err := engine.New(engine.Config{
		SampleRate:      beep.SampleRate(ec.SampleRate),
		Buffer:          ec.Buffer,
		MaxChannels:     ec.MaxChannels,
		ResampleQuality: ec.ResampleQuality,
	}, out, engine.WithLogger(logger.WithComponent("engine")))
	if err != nil {
		return nil, errmsg.Wrap(errmsg.OpOutputOpen, "", err)
	}
	return ctrl, nil
}

// newPlayer creates an endpoint on ctrl from the [player] section, with the
// configured initial volume and pan.
func (a *app) newPlayer(ctrl *engine.Controller) (*player.FilePlayer, error) {
	pc := a.cfg.GetPlayerConfig()
	p, err := player.New(ctrl,
		player.WithReadAhead(pc.ReadAhead),
		player.WithBlockFrames(pc.BlockFrames),
		player.WithRefillInterval(pc.RefillInterval),
		player.WithLogger(logger.WithComponent("player")),
	)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.OpInitialize, "", err)
	}
	p.SetVolume(*pc.Volume)
	p.SetPan(*pc.Pan)
	return p, nil
}

// openStore opens the resume store, or returns nil when [state] disables it.
func (a *app) openStore() (*state.Manager, error) {
	sc := a.cfg.GetStateConfig()
	if !*sc.Enabled {
		return nil, nil //nolint:nilnil // persistence disabled
	}

	var (
		m   *state.Manager
		err error
	)
	withLog := state.WithLogger(logger.WithComponent("state"))
	if sc.Path != "" {
		m, err = state.OpenPath(sc.Path, withLog)
	} else {
		m, err = state.Open(withLog)
	}
	if err != nil {
		return nil, errmsg.Wrap(errmsg.OpStateOpen, sc.Path, err)
	}
	return m, nil
}

// formatDuration renders d as m:ss, or h:mm:ss from one hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
