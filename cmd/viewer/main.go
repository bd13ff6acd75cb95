package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"

	"kickoff.ai/internal/observerproto"
	"kickoff.ai/internal/render/sound"
	"kickoff.ai/internal/render/term"
)

func main() {
	var (
		base  = flag.String("url", "http://localhost:8080", "server base url")
		mute  = flag.Bool("mute", false, "disable the whistle")
		state = flag.Bool("state", false, "request the state vector in every frame")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[viewer] ", log.LstdFlags|log.Lmicroseconds)

	boot, err := fetchBootstrap(strings.TrimRight(*base, "/") + "/admin/v1/observer/bootstrap")
	if err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(*base)+"/admin/v1/observer/ws", nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		WantState:       *state,
	}); err != nil {
		logger.Fatalf("subscribe: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		logger.Fatalf("screen init: %v", err)
	}
	defer screen.Fini()

	whistle := sound.NewPlayer()
	if !*mute {
		if err := whistle.Init(); err != nil {
			// No audio device is common on servers; keep drawing.
			logger.Printf("audio disabled: %v", err)
		}
	}
	defer whistle.Close()

	r := term.New(screen, boot)

	frames := make(chan observerproto.FrameMsg, 4)
	go func() {
		defer close(frames)
		for {
			var f observerproto.FrameMsg
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
		}
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	var last observerproto.FrameMsg
	var lastKickoffs uint64
	redraw := time.NewTicker(500 * time.Millisecond)
	defer redraw.Stop()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return
				}
			case *tcell.EventResize:
				screen.Sync()
				r.Draw(last)
			}
		case f, ok := <-frames:
			if !ok {
				return
			}
			switch {
			case f.Goal != nil:
				whistle.Play(sound.GoalWhistle())
			case lastKickoffs == 0 && f.Kickoffs > 0:
				whistle.Play(sound.KickoffWhistle())
			}
			lastKickoffs = f.Kickoffs
			last = f
			r.Draw(f)
		case <-redraw.C:
			if last.Tick == 0 && len(last.Players) == 0 {
				continue
			}
			r.Draw(last)
		}
	}
}

func fetchBootstrap(url string) (observerproto.BootstrapResponse, error) {
	var boot observerproto.BootstrapResponse
	c := &http.Client{Timeout: 5 * time.Second}
	resp, err := c.Get(url)
	if err != nil {
		return boot, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return boot, fmt.Errorf("%s: %s", url, resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(&boot)
	return boot, err
}

// wsURL turns an http(s) base url into its ws(s) counterpart.
func wsURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
