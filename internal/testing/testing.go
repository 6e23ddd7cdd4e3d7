// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
	"golang.org/x/oauth2"
)

// MemoryStore is an in-memory credential store.
type MemoryStore struct {
	mu      sync.Mutex
	creds   *models.Credentials
	LoadErr error
	Saves   int
}

func NewMemoryStore(creds *models.Credentials) *MemoryStore {
	return &MemoryStore{creds: creds}
}

func (s *MemoryStore) Load() (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.creds, nil
}

func (s *MemoryStore) Save(creds *models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.Saves++
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}

// Stored returns what was last saved.
func (s *MemoryStore) Stored() *models.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// FakeSession is a streaming session that issues "token-N" bearer tokens.
type FakeSession struct {
	mu         sync.Mutex
	connected  bool
	username   string
	ConnectErr error
	// ExchangeErr fails every exchange when set.
	ExchangeErr error
	exchanges   atomic.Int32
	connects    atomic.Int32
}

func NewFakeSession(username string) *FakeSession {
	return &FakeSession{username: username}
}

func (s *FakeSession) Connect(ctx context.Context, creds *models.Credentials) error {
	s.connects.Add(1)
	if s.ConnectErr != nil {
		return s.ConnectErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *FakeSession) ExchangeToken(ctx context.Context) (models.BearerToken, error) {
	n := s.exchanges.Add(1)
	if s.ExchangeErr != nil {
		return models.BearerToken{}, s.ExchangeErr
	}
	if !s.Connected() {
		return models.BearerToken{}, shared.ErrNotConnected
	}
	return models.BearerToken{AccessToken: "token-" + string(rune('0'+n))}, nil
}

func (s *FakeSession) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ""
	}
	return s.username
}

func (s *FakeSession) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *FakeSession) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// Exchanges counts ExchangeToken calls.
func (s *FakeSession) Exchanges() int { return int(s.exchanges.Load()) }

// Connects counts Connect calls.
func (s *FakeSession) Connects() int { return int(s.connects.Load()) }

// TestCredentials returns credentials carrying a non-expiring access token.
func TestCredentials(username string) *models.Credentials {
	return &models.Credentials{Username: username, Token: &oauth2.Token{AccessToken: "cached", RefreshToken: "refresh"}}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
