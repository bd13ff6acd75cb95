// Package sound plays the referee whistle in the terminal viewer.
package sound

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// trill is a warbling sine: a pea whistle is roughly a 3kHz tone
// modulated at ~30Hz.
type trill struct {
	rate  beep.SampleRate
	freq  float64
	mod   float64
	phase float64
	pos   int
}

func (t *trill) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		tm := float64(t.pos) / float64(t.rate)
		f := t.freq * (1 + 0.04*math.Sin(2*math.Pi*t.mod*tm))
		v := 0.2 * math.Sin(2*math.Pi*t.phase)
		samples[i][0] = v
		samples[i][1] = v
		t.phase += f / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *trill) Err() error { return nil }

func blast(d time.Duration) beep.Streamer {
	return beep.Take(sampleRate.N(d), &trill{rate: sampleRate, freq: 3000, mod: 30})
}

func silence(d time.Duration) beep.Streamer { return beep.Silence(sampleRate.N(d)) }

// GoalWhistle is two short blasts and a long one.
func GoalWhistle() beep.Streamer {
	return beep.Seq(
		blast(150*time.Millisecond), silence(80*time.Millisecond),
		blast(150*time.Millisecond), silence(80*time.Millisecond),
		blast(600*time.Millisecond),
	)
}

// KickoffWhistle is a single blast.
func KickoffWhistle() beep.Streamer { return blast(400 * time.Millisecond) }

// Player owns the speaker. A zero Player whose Init failed is silent.
type Player struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	active bool
}

func NewPlayer() *Player { return &Player{mixer: &beep.Mixer{}} }

// Init opens the audio device. Callers should treat an error as "no sound".
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.active = true
	return nil
}

func (p *Player) Play(s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.active = false
}
