package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smokecheck/internal/infra/kv/memory"
	kvcore "smokecheck/internal/kv/core"
	"smokecheck/pkg/domain"
)

// recordingKV wraps the memory driver and counts calls; fail* inject errors.
type recordingKV struct {
	*memory.Store
	mu         sync.Mutex
	gets       int
	sets       []string
	removes    int
	failGet    error
	failSet    error
	failRemove error
}

func newRecordingKV() *recordingKV { return &recordingKV{Store: memory.New()} }

func (r *recordingKV) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	r.gets++
	fail := r.failGet
	r.mu.Unlock()
	if fail != nil {
		return "", false, fail
	}
	return r.Store.Get(ctx, key)
}

func (r *recordingKV) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.sets = append(r.sets, key)
	fail := r.failSet
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return r.Store.Set(ctx, key, value)
}

func (r *recordingKV) MultiRemove(ctx context.Context, keys []string) error {
	r.mu.Lock()
	r.removes++
	fail := r.failRemove
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return r.Store.MultiRemove(ctx, keys)
}

func (r *recordingKV) getCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets
}

func (r *recordingKV) setKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sets...)
}

var _ kvcore.Store = (*recordingKV)(nil)

var errBoom = errors.New("boom")

// stepClock advances one second per call so every mutation gets a distinct time.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type captureLogger struct {
	mu    sync.Mutex
	calls []string
}

func (c *captureLogger) add(s string) {
	c.mu.Lock()
	c.calls = append(c.calls, s)
	c.mu.Unlock()
}
func (c *captureLogger) Debug(msg string, _ ...any) { c.add("d:" + msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.add("i:" + msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.add("w:" + msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.add("e:" + msg) }

func (c *captureLogger) count(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func newTestStore(t *testing.T, kv kvcore.Store, opts ...Option) *Store {
	t.Helper()
	base := []Option{WithClock(newStepClock()), WithIDGenerator(NewSequenceGenerator("id-"))}
	return NewStore(kv, append(base, opts...)...)
}

type fixture struct {
	project  domain.Project
	building domain.Building
	zone     domain.FunctionalZone
	shutters []domain.Shutter
}

// seed builds Project "Campus" (Lyon) > Building "Hall A" > Zone "Stairwell 1"
// with shutters VH01 (high) and VB01 (low).
func seed(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()
	p, err := s.CreateProject(ctx, domain.Project{Name: "Campus", City: domain.Ptr("Lyon")})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	b, ok, err := s.CreateBuilding(ctx, p.ID, domain.Building{Name: "Hall A"})
	if err != nil || !ok {
		t.Fatalf("create building ok=%v err=%v", ok, err)
	}
	z, ok, err := s.CreateZone(ctx, b.ID, domain.FunctionalZone{Name: "Stairwell 1"})
	if err != nil || !ok {
		t.Fatalf("create zone ok=%v err=%v", ok, err)
	}
	var shutters []domain.Shutter
	for _, in := range []domain.Shutter{
		{Name: "VH01", Type: domain.ShutterHigh, ReferenceFlow: 5000, MeasuredFlow: 4900},
		{Name: "VB01", Type: domain.ShutterLow, ReferenceFlow: 3000, MeasuredFlow: 3450, Remarks: domain.Ptr("grille obstructed")},
	} {
		sh, ok, err := s.CreateShutter(ctx, z.ID, in)
		if err != nil || !ok {
			t.Fatalf("create shutter ok=%v err=%v", ok, err)
		}
		shutters = append(shutters, sh)
	}
	return fixture{project: p, building: b, zone: z, shutters: shutters}
}
