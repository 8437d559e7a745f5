package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a minimal configurable engine for pipeline tests.
type fakeEngine struct {
	name      string
	consent   bool
	calls     atomic.Int64
	calculate func(ctx context.Context, input core.Input) (core.Output, error)
}

func (f *fakeEngine) Name() string        { return f.name }
func (f *fakeEngine) Description() string { return "test engine" }

func (f *fakeEngine) InputSchema() *schema.Schema {
	return core.InputSchema(map[string]any{
		"word": map[string]any{"type": "string"},
	})
}

func (f *fakeEngine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{"echo": map[string]any{"type": "string"}})
}

func (f *fakeEngine) Calculate(ctx context.Context, input core.Input) (core.Output, error) {
	f.calls.Add(1)
	if f.calculate != nil {
		return f.calculate(ctx, input)
	}
	word, _ := input["word"].(string)
	return core.Output{"echo": word}, nil
}

func (f *fakeEngine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	return "echo: " + raw["echo"].(string), nil
}

func (f *fakeEngine) RequiresConsent() bool { return f.consent }

// memCache is an in-process Cache recording puts.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*core.Reading
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*core.Reading)}
}

func (c *memCache) GetReading(_ context.Context, key string) (*core.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return r, nil
}

func (c *memCache) PutReading(_ context.Context, key string, reading *core.Reading, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = reading
	c.puts++
	return nil
}

// memStore records saved readings.
type memStore struct {
	mu       sync.Mutex
	saved    []*core.Reading
	failWith error
}

func (s *memStore) SaveReading(_ context.Context, reading *core.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.saved = append(s.saved, reading)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func newTestOrchestrator(t *testing.T, engines ...core.Engine) (*Orchestrator, *memCache, *memStore) {
	t.Helper()
	registry := core.NewRegistry()
	registry.MustRegister(engines...)
	cache := newMemCache()
	store := &memStore{}
	return New(Options{Registry: registry, Cache: cache, Store: store}), cache, store
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Should assemble a complete reading envelope", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, _, _ := newTestOrchestrator(t, eng)

		reading, err := orch.Run(ctx, "echo", core.Input{"word": "hello", "user_id": "u-1"})
		require.NoError(t, err)
		assert.Equal(t, "echo", reading.EngineName)
		assert.Equal(t, 1.0, reading.ConfidenceScore)
		assert.Equal(t, "echo: hello", reading.FormattedOutput)
		assert.False(t, reading.ReadingID.IsZero())
		assert.False(t, reading.CacheHit())
		require.NotNil(t, reading.ExpiresAt)
		assert.Contains(t, reading.TableRefs, "engine_echo_readings")
		assert.NotEmpty(t, reading.KVCacheKeys)
		orch.Drain()
	})
	t.Run("Should report unknown engines", func(t *testing.T) {
		orch, _, _ := newTestOrchestrator(t, &fakeEngine{name: "echo"})
		_, err := orch.Run(ctx, "nope", core.Input{})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindUnknownEngine, core.KindOf(err))
	})
	t.Run("Should reject inputs with unknown fields", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, _, _ := newTestOrchestrator(t, eng)
		_, err := orch.Run(ctx, "echo", core.Input{"wrod": "typo"})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInvalidInput, core.KindOf(err))
		assert.Zero(t, eng.calls.Load())
	})
	t.Run("Should convert panics into internal errors", func(t *testing.T) {
		eng := &fakeEngine{name: "boom", calculate: func(context.Context, core.Input) (core.Output, error) {
			panic("unexpected")
		}}
		orch, _, _ := newTestOrchestrator(t, eng)
		_, err := orch.Run(ctx, "boom", core.Input{})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindInternal, core.KindOf(err))
	})
	t.Run("Should time out slow engines", func(t *testing.T) {
		eng := &fakeEngine{name: "slow", calculate: func(ctx context.Context, _ core.Input) (core.Output, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		registry := core.NewRegistry()
		registry.MustRegister(eng)
		orch := New(Options{Registry: registry, RunTimeout: 20 * time.Millisecond})

		_, err := orch.Run(ctx, "slow", core.Input{})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindTimeout, core.KindOf(err))
	})
}

func TestConsentGate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should refuse a consent engine without consent", func(t *testing.T) {
		eng := &fakeEngine{name: "biometric", consent: true}
		orch, _, _ := newTestOrchestrator(t, eng)

		_, err := orch.Run(ctx, "biometric", core.Input{"word": "x"})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindConsentRequired, core.KindOf(err))
		assert.Zero(t, eng.calls.Load(), "calculation must never start without consent")
	})
	t.Run("Should run with consent and cap retention at the biometric limit", func(t *testing.T) {
		eng := &fakeEngine{name: "biometric", consent: true}
		orch, _, _ := newTestOrchestrator(t, eng)

		reading, err := orch.Run(ctx, "biometric", core.Input{
			"word":                    "x",
			"data_processing_consent": true,
			"retention_days":          365,
		})
		require.NoError(t, err)
		assert.Equal(t, core.PrivacyBiometric, reading.PrivacyLevel)
		require.NotNil(t, reading.ExpiresAt)
		assert.True(t, reading.ExpiresAt.Before(time.Now().AddDate(0, 0, 31)))
		orch.Drain()
	})
}

func TestCaching(t *testing.T) {
	ctx := context.Background()

	t.Run("Should serve repeated inputs from the cache", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, _, _ := newTestOrchestrator(t, eng)
		input := core.Input{"word": "hello"}

		first, err := orch.Run(ctx, "echo", input)
		require.NoError(t, err)
		orch.Drain()

		second, err := orch.Run(ctx, "echo", input)
		require.NoError(t, err)
		assert.Equal(t, int64(1), eng.calls.Load(), "second run must not recompute")
		assert.True(t, second.CacheHit())
		assert.False(t, first.CacheHit())
		assert.Equal(t, first.ReadingID, second.ReadingID)
	})
	t.Run("Should bypass the cache when cache_result is false", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, cache, _ := newTestOrchestrator(t, eng)
		input := core.Input{"word": "hello", "cache_result": false}

		_, err := orch.Run(ctx, "echo", input)
		require.NoError(t, err)
		_, err = orch.Run(ctx, "echo", input)
		require.NoError(t, err)
		orch.Drain()
		assert.Equal(t, int64(2), eng.calls.Load())
		assert.Zero(t, cache.puts)
	})
	t.Run("Should honor an explicit cache key", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, cache, _ := newTestOrchestrator(t, eng)

		_, err := orch.Run(ctx, "echo", core.Input{"word": "hello", "cache_key": "pinned"})
		require.NoError(t, err)
		orch.Drain()
		_, ok := cache.entries["pinned"]
		assert.True(t, ok)
	})
}

func TestAsyncWrites(t *testing.T) {
	ctx := context.Background()

	t.Run("Should persist and cache after the response", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, cache, store := newTestOrchestrator(t, eng)

		reading, err := orch.Run(ctx, "echo", core.Input{"word": "hello"})
		require.NoError(t, err)
		orch.Drain()

		require.Equal(t, 1, store.count())
		assert.Equal(t, reading.ReadingID, store.saved[0].ReadingID)
		assert.Equal(t, 1, cache.puts)
	})
	t.Run("Should write every advertised cache key", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, cache, _ := newTestOrchestrator(t, eng)

		reading, err := orch.Run(ctx, "echo", core.Input{"word": "hello", "user_id": "u-1"})
		require.NoError(t, err)
		orch.Drain()

		userKey := core.UserCacheKey("u-1", "echo", "reading", reading.ReadingID)
		require.Len(t, reading.KVCacheKeys, 2)
		assert.Contains(t, reading.KVCacheKeys, userKey)
		for _, key := range reading.KVCacheKeys {
			_, ok := cache.entries[key]
			assert.True(t, ok, "key %s advertised but never written", key)
		}
		assert.Equal(t, 2, cache.puts)
	})
	t.Run("Should skip persistence when store_reading is false", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		orch, _, store := newTestOrchestrator(t, eng)

		reading, err := orch.Run(ctx, "echo", core.Input{"word": "hello", "store_reading": false})
		require.NoError(t, err)
		orch.Drain()
		assert.Zero(t, store.count())
		assert.Nil(t, reading.ExpiresAt)
		assert.Empty(t, reading.TableRefs)
	})
	t.Run("Should swallow persistence failures", func(t *testing.T) {
		eng := &fakeEngine{name: "echo"}
		registry := core.NewRegistry()
		registry.MustRegister(eng)
		store := &memStore{failWith: assert.AnError}
		orch := New(Options{Registry: registry, Store: store})

		reading, err := orch.Run(ctx, "echo", core.Input{"word": "hello"})
		require.NoError(t, err)
		assert.NotNil(t, reading)
		orch.Drain()
	})
}

func TestRunMany(t *testing.T) {
	ctx := context.Background()

	t.Run("Should isolate failures inside a parallel batch", func(t *testing.T) {
		orch, _, _ := newTestOrchestrator(t, &fakeEngine{name: "echo"}, &fakeEngine{name: "other"})
		results := orch.RunMany(ctx, []Request{
			{Engine: "echo", Input: core.Input{"word": "a"}},
			{Engine: "missing", Input: core.Input{}},
			{Engine: "other", Input: core.Input{"word": "b"}},
		}, core.ModeParallel)
		orch.Drain()

		require.Len(t, results, 3)
		require.NoError(t, results["echo"].Err)
		require.NoError(t, results["other"].Err)
		require.Error(t, results["missing"].Err)
		assert.Equal(t, core.ErrKindUnknownEngine, core.KindOf(results["missing"].Err))
		assert.Equal(t, "echo: a", results["echo"].Reading.FormattedOutput)
	})
	t.Run("Should expose earlier outputs to later sequential engines", func(t *testing.T) {
		var firstSaw, secondSaw map[string]core.Output
		first := &fakeEngine{name: "first", calculate: func(ctx context.Context, _ core.Input) (core.Output, error) {
			firstSaw = core.PriorOutputsFromContext(ctx)
			return core.Output{"echo": "alpha"}, nil
		}}
		second := &fakeEngine{name: "second", calculate: func(ctx context.Context, _ core.Input) (core.Output, error) {
			secondSaw = core.PriorOutputsFromContext(ctx)
			return core.Output{"echo": "beta"}, nil
		}}
		orch, _, _ := newTestOrchestrator(t, first, second)

		results := orch.RunMany(ctx, []Request{
			{Engine: "first", Input: core.Input{"word": "a"}},
			{Engine: "second", Input: core.Input{"word": "b"}},
		}, core.ModeSequential)
		orch.Drain()

		require.NoError(t, results["first"].Err)
		require.NoError(t, results["second"].Err)
		assert.Nil(t, firstSaw, "the first engine must see no prior outputs")
		require.NotNil(t, secondSaw)
		assert.Equal(t, core.Output{"echo": "alpha"}, secondSaw["first"])
	})
	t.Run("Should skip failed engines in the shared sequential context", func(t *testing.T) {
		var lastSaw map[string]core.Output
		broken := &fakeEngine{name: "broken", calculate: func(context.Context, core.Input) (core.Output, error) {
			return nil, core.DependencyUnavailableError("broken", "ephemeris", nil)
		}}
		last := &fakeEngine{name: "last", calculate: func(ctx context.Context, _ core.Input) (core.Output, error) {
			lastSaw = core.PriorOutputsFromContext(ctx)
			return core.Output{"echo": "ok"}, nil
		}}
		orch, _, _ := newTestOrchestrator(t, &fakeEngine{name: "echo"}, broken, last)

		results := orch.RunMany(ctx, []Request{
			{Engine: "echo", Input: core.Input{"word": "a"}},
			{Engine: "broken", Input: core.Input{}},
			{Engine: "last", Input: core.Input{}},
		}, core.ModeSequential)
		orch.Drain()

		require.Error(t, results["broken"].Err)
		require.NoError(t, results["last"].Err)
		require.NotNil(t, lastSaw)
		assert.Contains(t, lastSaw, "echo")
		assert.NotContains(t, lastSaw, "broken")
	})
	t.Run("Should run sequential batches in submission order", func(t *testing.T) {
		var mu sync.Mutex
		order := []string{}
		record := func(name string) func(context.Context, core.Input) (core.Output, error) {
			return func(_ context.Context, input core.Input) (core.Output, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				word, _ := input["word"].(string)
				return core.Output{"echo": word}, nil
			}
		}
		orch, _, _ := newTestOrchestrator(t,
			&fakeEngine{name: "first", calculate: record("first")},
			&fakeEngine{name: "second", calculate: record("second")},
			&fakeEngine{name: "third", calculate: record("third")},
		)
		results := orch.RunMany(ctx, []Request{
			{Engine: "first", Input: core.Input{"word": "1"}},
			{Engine: "second", Input: core.Input{"word": "2"}},
			{Engine: "third", Input: core.Input{"word": "3"}},
		}, core.ModeSequential)
		orch.Drain()

		require.Len(t, results, 3)
		assert.Equal(t, []string{"first", "second", "third"}, order)
	})
}
