package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/example/katasensei/internal/arcade"
)

const sampleRate = beep.SampleRate(44100)

// SoundManager plays arcade sound effects through the system speaker
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

// NewSoundManager creates a silent manager; call Initialize to open the speaker
func NewSoundManager() *SoundManager {
	return &SoundManager{mixer: &beep.Mixer{}}
}

// Initialize opens the speaker. Callers treat a failure as "no sound".
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Close stops playback and releases the speaker
func (sm *SoundManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	sm.initialized = false
}

// Enabled reports whether the speaker is open
func (sm *SoundManager) Enabled() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.initialized
}

func (sm *SoundManager) play(s beep.Streamer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()
}

// HandleEvent maps engine events to effects
func (sm *SoundManager) HandleEvent(ev arcade.Event) {
	if s := EffectFor(ev.Type); s != nil {
		sm.play(s)
	}
}

// EffectFor returns the effect for an event type, or nil when it is silent
func EffectFor(t arcade.EventType) beep.Streamer {
	switch t {
	case arcade.EventShot:
		return ShootEffect()
	case arcade.EventTargetHit:
		return HitEffect()
	case arcade.EventWrongTarget:
		return WrongEffect()
	case arcade.EventGameOver:
		return GameOverEffect()
	default:
		return nil
	}
}
