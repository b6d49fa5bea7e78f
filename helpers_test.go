package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type apiCall struct {
	path  string
	query url.Values
}

// fakeAPI answers GETs from per-path handlers and records every call.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []apiCall
	handlers map[string]func(query url.Values) (*APIResponse, error)
}

var _ APIClient = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{handlers: map[string]func(url.Values) (*APIResponse, error){}}
}

func (f *fakeAPI) handle(path string, h func(query url.Values) (*APIResponse, error)) {
	f.handlers[path] = h
}

func (f *fakeAPI) respond(path string, status int, body string) {
	f.handle(path, func(url.Values) (*APIResponse, error) {
		return &APIResponse{OK: status >= 200 && status < 300, Status: status, Body: []byte(body)}, nil
	})
}

func (f *fakeAPI) Get(_ context.Context, path string, query url.Values) (*APIResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{path: path, query: query})
	f.mu.Unlock()
	h, ok := f.handlers[path]
	if !ok {
		return &APIResponse{OK: false, Status: 404, Body: []byte(`{"message": "Unknown"}`)}, nil
	}
	return h(query)
}

func (f *fakeAPI) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if path == "" || c.path == path {
			n++
		}
	}
	return n
}

// fakeNative keeps saved files in memory and serves assets from a map.
type fakeNative struct {
	mu     sync.Mutex
	saved  map[string][]byte
	assets map[string][]byte
	fetchs []string
}

var _ Native = (*fakeNative)(nil)

func newFakeNative() *fakeNative {
	return &fakeNative{saved: map[string][]byte{}, assets: map[string][]byte{}}
}

func (n *fakeNative) SaveFile(_ context.Context, baseDir, relPath string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saved[baseDir+"/"+relPath] = payload
	return nil
}

func (n *fakeNative) FetchAsset(_ context.Context, url string) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fetchs = append(n.fetchs, url)
	return n.assets[url], nil
}

type fakeSaver struct {
	saved map[string][]byte
	err   error
}

func (s *fakeSaver) Save(_ context.Context, filename string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return nil
}

type fakeSender struct {
	sent    map[string][]byte
	err     error
	doPanic bool
}

func (s *fakeSender) Send(_ context.Context, channelID, filename string, data []byte) error {
	if s.doPanic {
		panic("upload exploded")
	}
	if s.err != nil {
		return s.err
	}
	if s.sent == nil {
		s.sent = map[string][]byte{}
	}
	s.sent[channelID+"/"+filename] = data
	return nil
}

type recordingNotifier struct {
	outcomes []Outcome
}

func (n *recordingNotifier) Notify(_ context.Context, o Outcome) error {
	n.outcomes = append(n.outcomes, o)
	return nil
}

type recordingProgress struct {
	statuses []string
	done     int
}

func (p *recordingProgress) Report(_, status string) {
	p.statuses = append(p.statuses, status)
}

func (p *recordingProgress) Done() {
	p.done++
}

// testContext returns an ExportContext over an archive sink.
func testContext(store Store, client APIClient) (*ExportContext, *ArchiveSink) {
	logger := discardLogger()
	sink := NewArchiveSink(logger)
	return &ExportContext{
		GuildID:        "g1",
		Guild:          &Guild{ID: "g1", Name: "Test Guild"},
		FilenameFormat: FilenameByID,
		MediaProxy:     DefaultMediaProxy,
		Store:          store,
		Client:         client,
		Downloader:     NewDownloader(newFakeNative(), nil),
		Logger:         logger,
		sink:           sink,
	}, sink
}

func userRecords(from, to int) string {
	s := "["
	for i := from; i < to; i++ {
		if i > from {
			s += ","
		}
		s += fmt.Sprintf(`{"user":{"id":"%d"}}`, i)
	}
	return s + "]"
}
