package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abdulachik/postcraft/internal/db"
	"github.com/abdulachik/postcraft/internal/imagegen"
	"github.com/abdulachik/postcraft/internal/vectorstore"
)

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeGenerator returns https://img.test/<segment id> unless the segment is
// listed in fail.
type fakeGenerator struct {
	mu       sync.Mutex
	fail     map[int]bool
	requests []imagegen.Request
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, req imagegen.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.fail[req.SegmentID] {
		return "", errors.New("backend unavailable")
	}
	return fmt.Sprintf("https://img.test/%d", req.SegmentID), nil
}

func (g *fakeGenerator) request(segmentID int) (imagegen.Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.requests {
		if r.SegmentID == segmentID {
			return r, true
		}
	}
	return imagegen.Request{}, false
}

// fakeCompositor prefixes "card:" to the image URL.
type fakeCompositor struct {
	mu    sync.Mutex
	calls int
}

func (c *fakeCompositor) Compose(_ context.Context, url, _, _ string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return "card:" + url
}

func (c *fakeCompositor) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *fakeNotifier) Publish(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *fakeNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

type fakeArchive struct {
	entries  []vectorstore.Entry
	err      error
	searched string
}

func (a *fakeArchive) Archive(_ context.Context, entries []vectorstore.Entry) error {
	a.entries = append(a.entries, entries...)
	return a.err
}

func (a *fakeArchive) Search(_ context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	a.searched = "vector:" + query
	return []vectorstore.SearchResult{{Summary: "vector"}}, nil
}

func (a *fakeArchive) TextSearch(_ context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	a.searched = "text:" + query
	return []vectorstore.SearchResult{{Summary: "text"}}, nil
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()
	store, err := db.NewStore(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { store.Close() })
	return store
}
