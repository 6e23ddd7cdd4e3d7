package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/taan/internal/auth"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/repositories"
	"github.com/desertthunder/taan/internal/shared"
	tu "github.com/desertthunder/taan/internal/testing"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// testConfig keeps every file the runner touches inside a temp dir.
func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Cache.CredentialBackend = "file"
	config.Cache.CredentialPath = filepath.Join(dir, "credentials.json")
	config.Database.Path = filepath.Join(dir, "taan.db")
	config.Log.File = filepath.Join(dir, "taan.log")
	config.API.RateLimit = 0
	return config
}

func newTestRunner(t *testing.T, config *shared.Config) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})
	t.Cleanup(func() { r.Close() })
	return r, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "taan", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"taan"}, args...))
}

func storeCredentials(t *testing.T, config *shared.Config) {
	t.Helper()
	creds := &models.Credentials{
		Kind:     models.CredentialsStored,
		Username: "wizzler",
		Token:    &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)},
	}
	if err := auth.NewFileStore(config.Cache.CredentialPath).Save(creds); err != nil {
		t.Fatalf("failed to store credentials: %v", err)
	}
}

// webAPI serves the handful of Web API endpoints the commands page through.
func webAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer at" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("GET /me", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"id":"wizzler","display_name":"Wizzler"}`)
	}))
	mux.HandleFunc("GET /me/playlists", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"items":[{"id":"p1","name":"Road Trip","owner":{"id":"wizzler"},"tracks":{"total":1}}],"total":1,"next":null}`)
	}))
	mux.HandleFunc("GET /playlists/p1", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"id":"p1","name":"Road Trip","owner":{"id":"wizzler"},"tracks":{"total":1}}`)
	}))
	mux.HandleFunc("GET /playlists/p1/tracks", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"items":[{"track":{"id":"t1","name":"Song","artists":[{"name":"Band"}],"album":{"name":"LP"},"duration_ms":180000,"uri":"spotify:track:t1"}}],"total":1,"next":null}`)
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type daemonCall struct {
	path string
	body map[string]any
}

// fakeDaemon accepts the events websocket and records player commands.
type fakeDaemon struct {
	mu    sync.Mutex
	calls []daemonCall
}

func (d *fakeDaemon) serve(t *testing.T) (string, int) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("POST /player/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		d.mu.Lock()
		d.calls = append(d.calls, daemonCall{path: r.URL.Path, body: body})
		d.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	host, port, _ := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	p, _ := strconv.Atoi(port)
	return host, p
}

func (d *fakeDaemon) recorded() []daemonCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]daemonCall(nil), d.calls...)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected configPath to be set, got %q", runner.configPath)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output == nil {
				t.Error("expected default output to be set")
			}
			if runner.httpClient == nil || runner.httpClient.Timeout != 15*time.Second {
				t.Errorf("expected client with configured timeout, got %+v", runner.httpClient)
			}
		})

		t.Run("config path defaults to the per-user file", func(t *testing.T) {
			paths := shared.Paths{ConfigDir: "/tmp/taan-config", CacheDir: "/tmp/taan-cache"}
			runner := NewRunner(RunnerOpts{Paths: paths})

			if runner.configPath != paths.ConfigFile() {
				t.Errorf("configPath = %q, want %q", runner.configPath, paths.ConfigFile())
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}
		want := "setup auth playlists play cache tui"
		if got := strings.Join(names, " "); got != want {
			t.Errorf("commands = %q, want %q", got, want)
		}
	})

	t.Run("callbackAddr", func(t *testing.T) {
		config := shared.DefaultConfig()
		runner := NewRunner(RunnerOpts{Config: config})
		if got := runner.callbackAddr(); got != "127.0.0.1:8898" {
			t.Errorf("callbackAddr() = %q", got)
		}

		config.Server.Port = 0
		if got := runner.callbackAddr(); got != "" {
			t.Errorf("callbackAddr() without port = %q, want empty", got)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config writes the defaults once", func(t *testing.T) {
		runner, output := newTestRunner(t, testConfig(t))
		path := filepath.Join(t.TempDir(), "nested", "config.toml")

		if err := run(runner, "setup", "config", "--path", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "[engine]") {
			t.Errorf("config missing [engine] section:\n%s", content)
		}
		if !strings.Contains(output.String(), "taan auth login") {
			t.Errorf("missing next steps:\n%s", output.String())
		}

		if err := run(runner, "setup", "config", "--path", path); err == nil {
			t.Error("expected error when the file already exists")
		}
	})

	t.Run("config uses the runner's path", func(t *testing.T) {
		runner, _ := newTestRunner(t, testConfig(t))

		if err := run(runner, "setup", "config"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, runner.configPath)
	})

	t.Run("database applies migrations", func(t *testing.T) {
		config := testConfig(t)
		runner, output := newTestRunner(t, config)

		if err := run(runner, "setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
		if !strings.Contains(output.String(), "✓ 0001") {
			t.Errorf("expected applied migration in output:\n%s", output.String())
		}
	})
}

func TestCache(t *testing.T) {
	runner, output := newTestRunner(t, testConfig(t))
	db, err := runner.database()
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	tracks := repositories.NewTrackRepository(db)
	for _, tr := range []models.Track{
		{ID: "t1", Title: "Song", Artist: "Band", DurationMS: 180000},
		{ID: "t2", Title: "Other", Artist: "Solo", DurationMS: 61000},
	} {
		if err := tracks.Upsert(&tr); err != nil {
			t.Fatalf("failed to seed track: %v", err)
		}
	}

	t.Run("tracks filtered by artist", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "cache", "tracks", "--artist", "Band"); err != nil {
			t.Fatalf("cache tracks failed: %v", err)
		}
		if !strings.Contains(output.String(), "1. Band - Song [3:00]") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
		if strings.Contains(output.String(), "Solo") {
			t.Errorf("filter ignored:\n%s", output.String())
		}
	})

	t.Run("tracks as csv", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "cache", "tracks", "--format", "csv"); err != nil {
			t.Fatalf("cache tracks failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "ID,Title,Artist,Album,Duration\n") {
			t.Errorf("expected CSV header:\n%s", output.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		err := run(runner, "cache", "tracks", "--format", "xml")
		if err == nil {
			t.Fatal("expected error for unknown format")
		}
	})

	t.Run("no playlists yet", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "cache", "playlists"); err != nil {
			t.Fatalf("cache playlists failed: %v", err)
		}
		if !strings.Contains(output.String(), "No cached playlists") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("status without credentials", func(t *testing.T) {
		runner, output := newTestRunner(t, testConfig(t))

		if err := run(runner, "auth", "status"); err != nil {
			t.Fatalf("auth status failed: %v", err)
		}
		if !strings.Contains(output.String(), "✗ Not logged in") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("status connects and shows history", func(t *testing.T) {
		config := testConfig(t)
		config.API.BaseURL = webAPI(t).URL
		storeCredentials(t, config)
		runner, output := newTestRunner(t, config)

		if err := run(runner, "auth", "status"); err != nil {
			t.Fatalf("auth status failed: %v", err)
		}
		out := output.String()
		if !strings.Contains(out, "✓ Logged in as wizzler") {
			t.Errorf("missing login line:\n%s", out)
		}
		if !strings.Contains(out, "Recent sessions:") || !strings.Contains(out, "cache") {
			t.Errorf("missing session history:\n%s", out)
		}
	})

	t.Run("logout clears the store", func(t *testing.T) {
		config := testConfig(t)
		storeCredentials(t, config)
		runner, output := newTestRunner(t, config)

		if err := run(runner, "auth", "logout"); err != nil {
			t.Fatalf("auth logout failed: %v", err)
		}
		creds, err := auth.NewFileStore(config.Cache.CredentialPath).Load()
		if err != nil || creds != nil {
			t.Errorf("store after logout = %+v, %v", creds, err)
		}
		if !strings.Contains(output.String(), "✓ Logged out") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("missing client id", func(t *testing.T) {
		config := testConfig(t)
		config.Credentials.Spotify.ClientID = ""
		runner, _ := newTestRunner(t, config)

		err := run(runner, "auth", "status")
		if err == nil || !strings.Contains(err.Error(), "client_id") {
			t.Errorf("expected missing client_id error, got %v", err)
		}
	})
}

func TestPlaylists(t *testing.T) {
	newRunner := func(t *testing.T) (*Runner, *bytes.Buffer) {
		config := testConfig(t)
		config.API.BaseURL = webAPI(t).URL
		storeCredentials(t, config)
		return newTestRunner(t, config)
	}

	t.Run("list prints and caches", func(t *testing.T) {
		runner, output := newRunner(t)

		if err := run(runner, "playlists", "list", "--limit", "10"); err != nil {
			t.Fatalf("playlists list failed: %v", err)
		}
		if !strings.Contains(output.String(), "1. Road Trip (1 tracks) [p1]") {
			t.Errorf("unexpected output:\n%s", output.String())
		}

		output.Reset()
		if err := run(runner, "cache", "playlists"); err != nil {
			t.Fatalf("cache playlists failed: %v", err)
		}
		if !strings.Contains(output.String(), "Road Trip") {
			t.Errorf("playlist not cached:\n%s", output.String())
		}
	})

	t.Run("list as json", func(t *testing.T) {
		runner, output := newRunner(t)

		if err := run(runner, "playlists", "list", "--json"); err != nil {
			t.Fatalf("playlists list failed: %v", err)
		}
		var got []models.Playlist
		if err := json.Unmarshal(output.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, output.String())
		}
		if len(got) != 1 || got[0].ID != "p1" {
			t.Errorf("playlists = %+v", got)
		}
	})

	t.Run("show prints tracks and caches them", func(t *testing.T) {
		runner, output := newRunner(t)

		if err := run(runner, "playlists", "show", "--id", "p1", "--format", "md"); err != nil {
			t.Fatalf("playlists show failed: %v", err)
		}
		out := output.String()
		if !strings.Contains(out, "# Road Trip") || !strings.Contains(out, "1. Band - Song (LP) [3:00]") {
			t.Errorf("unexpected output:\n%s", out)
		}

		db, _ := runner.database()
		cached, err := repositories.NewPlaylistRepository(db).Tracks("p1")
		if err != nil || len(cached) != 1 || cached[0].ID != "t1" {
			t.Errorf("cached tracks = %+v, %v", cached, err)
		}
	})

	t.Run("requires login", func(t *testing.T) {
		config := testConfig(t)
		config.API.BaseURL = webAPI(t).URL
		runner, _ := newTestRunner(t, config)

		err := run(runner, "playlists", "list")
		if err == nil || !strings.Contains(err.Error(), "taan auth login") {
			t.Errorf("expected login hint, got %v", err)
		}
	})
}

func TestPlay(t *testing.T) {
	t.Run("loads then resumes", func(t *testing.T) {
		daemon := &fakeDaemon{}
		config := testConfig(t)
		config.Engine.Host, config.Engine.Port = daemon.serve(t)
		runner, output := newTestRunner(t, config)

		if err := run(runner, "play", "--track", "spotify:track:t1"); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		calls := daemon.recorded()
		if len(calls) != 2 {
			t.Fatalf("daemon calls = %+v, want 2", calls)
		}
		if calls[0].path != "/player/play" || calls[0].body["uri"] != "spotify:track:t1" || calls[0].body["paused"] != true {
			t.Errorf("first call = %+v", calls[0])
		}
		if calls[1].path != "/player/resume" {
			t.Errorf("second call = %+v", calls[1])
		}
		if !strings.Contains(output.String(), "▶ spotify:track:t1") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("daemon unreachable", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		port := ln.Addr().(*net.TCPAddr).Port
		ln.Close()

		config := testConfig(t)
		config.Engine.Host, config.Engine.Port = "127.0.0.1", port
		runner, _ := newTestRunner(t, config)

		err = run(runner, "play", "--track", "t1")
		if err == nil || !strings.Contains(err.Error(), shared.ErrEngineUnavailable.Error()) {
			t.Errorf("expected engine unavailable, got %v", err)
		}
	})
}

func TestLinePublisher(t *testing.T) {
	var buf bytes.Buffer
	p := &linePublisher{w: &buf}

	p.PublishPlayback(models.PlaybackState{})
	p.PublishPlayback(models.PlaybackState{TrackID: "t1", Title: "Song", Artist: "Band", IsPlaying: true})
	p.PublishPlayback(models.PlaybackState{TrackID: "t1", Title: "Song", Artist: "Band", IsPlaying: true, PositionMS: 1000})
	p.PublishCover("t1", &models.CoverArt{Accent: "#112233"})
	p.PublishCover("t0", &models.CoverArt{Accent: "#000000"})
	p.PublishPlayback(models.PlaybackState{TrackID: "t1", Title: "Song", Artist: "Band"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"Nothing playing", "▶ Song - Band", "  cover #112233", "⏸ Song - Band"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
}
