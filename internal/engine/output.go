package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output pulls the mix on its render thread.
type Output interface {
	// Start begins pulling s at the given format.
	Start(format beep.Format, buffer time.Duration, s beep.Streamer) error
	// Lock and Unlock guard state shared with the render thread.
	Lock()
	Unlock()
	// Realtime reports whether the render thread runs against a clock.
	Realtime() bool
	Close() error
}

// The speaker package is process-global and can only be initialized once.
var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// SpeakerOutput plays the mix on the default audio device.
type SpeakerOutput struct{}

var _ Output = (*SpeakerOutput)(nil)

// NewSpeakerOutput returns an output backed by beep/speaker.
func NewSpeakerOutput() *SpeakerOutput {
	return &SpeakerOutput{}
}

// Start initializes the speaker on first use and starts playing s.
func (o *SpeakerOutput) Start(format beep.Format, buffer time.Duration, s beep.Streamer) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if !speakerInitialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(buffer)); err != nil {
			return err
		}
		speakerInitialized = true
		speakerSampleRate = format.SampleRate
	} else if speakerSampleRate != format.SampleRate {
		return fmt.Errorf("speaker already running at %d Hz", speakerSampleRate)
	}

	speaker.Play(s)
	return nil
}

func (o *SpeakerOutput) Lock() { speaker.Lock() }

func (o *SpeakerOutput) Unlock() { speaker.Unlock() }

func (o *SpeakerOutput) Realtime() bool { return true }

// Close stops everything playing on the speaker. The device itself stays
// open for the next controller.
func (o *SpeakerOutput) Close() error {
	speaker.Clear()
	return nil
}
