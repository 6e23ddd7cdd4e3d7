package player

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/playback"
	"github.com/desertthunder/taan/internal/shared"
	"github.com/gorilla/websocket"
)

const DefaultTick = time.Second

// Opts configures [Dial].
type Opts struct {
	Host        string
	Port        int
	DialTimeout time.Duration
	Tick        time.Duration // position report interval while playing
	HTTPClient  *http.Client
	Logger      *log.Logger

	now func() time.Time
}

// LibrespotEngine drives a go-librespot daemon: commands over its HTTP API and events
// from its /events websocket. It implements [playback.Engine].
type LibrespotEngine struct {
	baseURL string
	http    *http.Client
	conn    *websocket.Conn
	logger  *log.Logger

	events    chan playback.PlayerEvent
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the daemon's event stream and starts translating events.
//
// The event channel closes when the socket closes. Reconnecting is left to the caller.
func Dial(ctx context.Context, opts Opts) (*LibrespotEngine, error) {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, "ws://"+addr+"/events", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to events websocket: %v", shared.ErrEngineUnavailable, err)
	}

	e := &LibrespotEngine{
		baseURL: "http://" + addr,
		http:    opts.HTTPClient,
		conn:    conn,
		logger:  shared.WithLogger(opts.Logger, "component", "engine"),
		events:  make(chan playback.PlayerEvent, 32),
		done:    make(chan struct{}),
	}

	raw := make(chan Event, 32)
	go e.read(raw)
	go e.pump(raw, newTracker(opts.now), opts.Tick)
	return e, nil
}

// Events implements [playback.Engine].
func (e *LibrespotEngine) Events() <-chan playback.PlayerEvent { return e.events }

// Close closes the websocket. The event channel drains and closes afterwards.
func (e *LibrespotEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		err = e.conn.Close()
	})
	return err
}

func (e *LibrespotEngine) read(raw chan<- Event) {
	defer close(raw)
	for {
		_, msg, err := e.conn.ReadMessage()
		if err != nil {
			e.logger.Debug("event stream ended", "error", err)
			return
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			e.logger.Warn("malformed engine event", "error", err)
			continue
		}
		select {
		case raw <- ev:
		case <-e.done:
			return
		}
	}
}

// pump is the only writer of e.events.
func (e *LibrespotEngine) pump(raw <-chan Event, t *tracker, every time.Duration) {
	defer close(e.events)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	emit := func(ev playback.PlayerEvent) bool {
		select {
		case e.events <- ev:
			return true
		case <-e.done:
			return false
		}
	}

	for {
		select {
		case ev, ok := <-raw:
			if !ok {
				return
			}
			out, err := t.translate(ev)
			if err != nil {
				e.logger.Warn("failed to decode engine event", "type", ev.Type, "error", err)
				continue
			}
			for _, pe := range out {
				if !emit(pe) {
					return
				}
			}
		case <-ticker.C:
			if pe, ok := t.tick(); ok && !emit(pe) {
				return
			}
		case <-e.done:
			return
		}
	}
}

// Load starts the track paused.
func (e *LibrespotEngine) Load(ctx context.Context, trackID string) error {
	return e.postJSON(ctx, "/player/play", map[string]any{"uri": TrackURI(trackID), "paused": true})
}

func (e *LibrespotEngine) Play(ctx context.Context) error {
	return e.postEmpty(ctx, "/player/resume")
}

func (e *LibrespotEngine) Pause(ctx context.Context) error {
	return e.postEmpty(ctx, "/player/pause")
}

func (e *LibrespotEngine) Seek(ctx context.Context, positionMS int64) error {
	return e.postJSON(ctx, "/player/seek", map[string]any{"position": positionMS, "relative": false})
}

// Preload queues the next track so the daemon can buffer it.
func (e *LibrespotEngine) Preload(ctx context.Context, trackID string) error {
	return e.postJSON(ctx, "/player/add", map[string]any{"uri": TrackURI(trackID)})
}

func (e *LibrespotEngine) postEmpty(ctx context.Context, path string) error {
	return e.post(ctx, path, nil)
}

func (e *LibrespotEngine) postJSON(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return e.post(ctx, path, bytes.NewReader(data))
}

func (e *LibrespotEngine) post(ctx context.Context, path string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", shared.ErrEngineUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s returned %d: %s", path, resp.StatusCode, b)
	}
	return nil
}

var _ playback.Engine = (*LibrespotEngine)(nil)
