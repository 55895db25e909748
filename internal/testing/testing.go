// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tagx/internal/models"
)

// MockAPI is a test double for [services.MusicAPI] with canned responses.
type MockAPI struct {
	APIName string
	Info    *models.TrackInfo
	Err     error

	mu    sync.Mutex
	calls int
}

func (m *MockAPI) Name() string {
	if m.APIName == "" {
		return "mock"
	}
	return m.APIName
}

func (m *MockAPI) Lookup(ctx context.Context, artist, title string) (*models.TrackInfo, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Info == nil {
		return &models.TrackInfo{Artist: artist, Title: title, SourceAPI: m.Name()}, nil
	}
	return m.Info, nil
}

// Calls reports how many lookups the mock has served.
func (m *MockAPI) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// FTagWriter is a test double for [enrich.TagWriter] that always fails.
type FTagWriter struct{}

func (f *FTagWriter) WriteTags(path string, genres []string, info *models.TrackInfo) error {
	return errors.New("tag write failed")
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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
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
