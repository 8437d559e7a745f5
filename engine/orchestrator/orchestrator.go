// Package orchestrator owns the engine execution pipeline: input
// validation, consent gating, cache read-through, deadline-bounded
// calculation, envelope assembly, and decoupled cache and persistence
// writes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/schema"
	"github.com/auralab/aura/pkg/logger"
	"github.com/kaptinlin/jsonschema"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// ErrCacheMiss is the sentinel a Cache returns (possibly wrapped) when a
// key is absent.
var ErrCacheMiss = errors.New("cache: reading not found")

// Cache is the reading cache the orchestrator reads through. A miss is
// reported as ErrCacheMiss; implementations must surface deserialisation
// failures as misses, never as errors.
type Cache interface {
	GetReading(ctx context.Context, key string) (*core.Reading, error)
	PutReading(ctx context.Context, key string, reading *core.Reading, ttl time.Duration) error
}

// Store persists assembled readings.
type Store interface {
	SaveReading(ctx context.Context, reading *core.Reading) error
}

// Options wires an Orchestrator. Cache and Store are optional; a nil
// dependency degrades that path to compute-only behavior.
type Options struct {
	Registry *core.Registry
	Cache    Cache
	Store    Store

	CacheTTL             time.Duration
	RunTimeout           time.Duration
	PersistTimeout       time.Duration
	MaxParallel          int
	DefaultRetentionDays int
	MaxRetentionDays     int
	BiometricMaxDays     int
}

const (
	defaultCacheTTL       = 24 * time.Hour
	defaultRunTimeout     = 30 * time.Second
	defaultPersistTimeout = 5 * time.Second
	defaultMaxParallel    = 8
	defaultRetentionDays  = 365
	defaultMaxRetention   = 3650
	biometricRetentionCap = 30
)

// Orchestrator runs engines behind a uniform pipeline. It is safe for
// concurrent use.
type Orchestrator struct {
	opts Options

	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema

	// pending counts in-flight background writes so shutdown can drain.
	pending sync.WaitGroup
}

func New(opts Options) *Orchestrator {
	if opts.Registry == nil {
		panic("orchestrator: registry is required")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = defaultRunTimeout
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = defaultMaxParallel
	}
	if opts.DefaultRetentionDays <= 0 {
		opts.DefaultRetentionDays = defaultRetentionDays
	}
	if opts.MaxRetentionDays <= 0 {
		opts.MaxRetentionDays = defaultMaxRetention
	}
	if opts.BiometricMaxDays <= 0 || opts.BiometricMaxDays > biometricRetentionCap {
		opts.BiometricMaxDays = biometricRetentionCap
	}
	return &Orchestrator{
		opts:     opts,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Registry exposes the engine set for listing endpoints.
func (o *Orchestrator) Registry() *core.Registry {
	return o.opts.Registry
}

// Run executes one engine against a raw input and returns the assembled
// reading envelope.
func (o *Orchestrator) Run(ctx context.Context, engineName string, rawInput core.Input) (*core.Reading, error) {
	log := logger.FromContext(ctx)

	eng, err := o.opts.Registry.Get(engineName)
	if err != nil {
		return nil, err
	}

	if err := o.validateInput(eng, rawInput); err != nil {
		return nil, err
	}
	base, err := core.DecodeBase(rawInput)
	if err != nil {
		typed := core.AsError(err, engineName)
		if typed.Engine == "" {
			typed.Engine = engineName
		}
		return nil, typed
	}

	if core.RequiresConsent(eng) {
		if !base.DataProcessingConsent {
			return nil, core.ConsentRequiredError(engineName)
		}
		// Consent-gated engines always store under the biometric cap.
		base.PrivacyLevel = core.PrivacyBiometric
	}

	cacheKey := base.CacheKey
	if cacheKey == "" {
		cacheKey = core.CalcCacheKey(engineName, rawInput)
	}

	if base.CacheResult && o.opts.Cache != nil {
		cached, err := o.opts.Cache.GetReading(ctx, cacheKey)
		switch {
		case err == nil && cached != nil:
			cached.SetMeta("cache_hit", true)
			log.Debug("reading served from cache", "engine", engineName, "cache_key", cacheKey)
			return cached, nil
		case err != nil && !errors.Is(err, ErrCacheMiss):
			log.Warn("cache read failed, computing", "engine", engineName, "error", err)
		}
	}

	reading, err := o.execute(ctx, eng, rawInput, base)
	if err != nil {
		return nil, err
	}
	o.fillStorageFields(reading, base, cacheKey)
	o.writeAsync(ctx, reading, base)
	return reading, nil
}

// Request is one entry in a RunMany batch.
type Request struct {
	Engine string     `json:"engine"`
	Input  core.Input `json:"input"`
}

// Result pairs a reading with the error that replaced it; exactly one
// field is set.
type Result struct {
	Reading *core.Reading
	Err     error
}

// RunMany executes a batch keyed by engine name. Parallel mode fans out
// under a bounded group; sequential mode runs in submission order and
// exposes each prior engine's raw output to the next one through the
// context. One engine's failure never aborts its siblings.
func (o *Orchestrator) RunMany(ctx context.Context, requests []Request, mode core.RunMode) map[string]Result {
	results := make(map[string]Result, len(requests))
	if mode == core.ModeSequential {
		prior := make(map[string]core.Output, len(requests))
		for _, req := range requests {
			runCtx := ctx
			if len(prior) > 0 {
				runCtx = core.ContextWithPriorOutputs(ctx, maps.Clone(prior))
			}
			reading, err := o.Run(runCtx, req.Engine, req.Input)
			results[req.Engine] = Result{Reading: reading, Err: err}
			if err == nil && reading != nil {
				prior[req.Engine] = reading.RawData
			}
		}
		return results
	}

	slots := make([]Result, len(requests))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.opts.MaxParallel)
	for i, req := range requests {
		group.Go(func() error {
			reading, err := o.Run(groupCtx, req.Engine, req.Input)
			slots[i] = Result{Reading: reading, Err: err}
			return nil
		})
	}
	// Workers never return errors; Wait only fences the slot writes.
	_ = group.Wait()
	for i, req := range requests {
		results[req.Engine] = slots[i]
	}
	return results
}

// Drain blocks until all in-flight background writes finish. Called by
// graceful shutdown and tests.
func (o *Orchestrator) Drain() {
	o.pending.Wait()
}

func (o *Orchestrator) validateInput(eng core.Engine, rawInput core.Input) error {
	compiled, err := o.compiledSchema(eng)
	if err != nil {
		return core.InternalError(eng.Name(), err)
	}
	if ok, violations := schema.ValidateCompiled(compiled, map[string]any(rawInput)); !ok {
		detail := "input does not match the engine schema"
		if len(violations) > 0 {
			detail = violations[0]
		}
		return core.InvalidInputError(eng.Name(), "", detail, nil)
	}
	return nil
}

// compiledSchema compiles an engine's input schema once and memoizes it.
func (o *Orchestrator) compiledSchema(eng core.Engine) (*jsonschema.Schema, error) {
	name := eng.Name()
	o.mu.RLock()
	compiled, ok := o.compiled[name]
	o.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if compiled, ok := o.compiled[name]; ok {
		return compiled, nil
	}
	compiled, err := eng.InputSchema().Compile()
	if err != nil {
		return nil, fmt.Errorf("compile input schema for %s: %w", name, err)
	}
	o.compiled[name] = compiled
	return compiled, nil
}

// execute runs Calculate, Interpret, and the capability hooks under the
// run deadline, recovering panics into internal errors.
func (o *Orchestrator) execute(ctx context.Context, eng core.Engine, rawInput core.Input, base *core.BaseInput) (*core.Reading, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.opts.RunTimeout)
	defer cancel()

	type outcome struct {
		reading *core.Reading
		err     error
	}
	done := make(chan outcome, 1)
	started := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: core.InternalError(eng.Name(), fmt.Errorf("panic: %v", r))}
			}
		}()
		raw, err := eng.Calculate(runCtx, rawInput)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		formatted, err := eng.Interpret(runCtx, raw, rawInput)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		reading := &core.Reading{
			EngineName:       eng.Name(),
			ConfidenceScore:  1.0,
			Timestamp:        base.Timestamp,
			RawData:          raw,
			FormattedOutput:  formatted,
			Recommendations:  []string{},
			RealityPatches:   []string{},
			ArchetypalThemes: []string{},
			PrivacyLevel:     base.PrivacyLevel,
		}
		if r, ok := eng.(core.Recommender); ok {
			reading.Recommendations = r.Recommendations(raw, rawInput)
		}
		if p, ok := eng.(core.RealityPatcher); ok {
			reading.RealityPatches = p.RealityPatches(raw, rawInput)
		}
		if t, ok := eng.(core.Themer); ok {
			reading.ArchetypalThemes = t.ArchetypalThemes(raw, rawInput)
		}
		if c, ok := eng.(core.ConfidenceScorer); ok {
			reading.ConfidenceScore = clamp01(c.Confidence(raw, rawInput))
		}
		reading.CalculationTime = time.Since(started).Seconds()
		done <- outcome{reading: reading}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, core.AsError(out.err, eng.Name())
		}
		return out.reading, nil
	case <-runCtx.Done():
		return nil, core.TimeoutError(eng.Name(), runCtx.Err())
	}
}

func (o *Orchestrator) fillStorageFields(reading *core.Reading, base *core.BaseInput, cacheKey string) {
	now := time.Now().UTC()
	reading.ReadingID = base.ReadingID
	if reading.ReadingID.IsZero() {
		reading.ReadingID = core.MustNewID()
	}
	reading.UserID = base.UserID
	reading.CreatedAt = now
	reading.UpdatedAt = now
	reading.KVCacheKeys = []string{}
	reading.TableRefs = []string{}
	reading.SetMeta("cache_hit", false)

	if base.StoreReading {
		expires := now.AddDate(0, 0, o.retentionDays(base))
		reading.ExpiresAt = &expires
		reading.TableRefs = append(reading.TableRefs, fmt.Sprintf("engine_%s_readings", reading.EngineName))
	}
	if base.CacheResult && o.opts.Cache != nil {
		reading.KVCacheKeys = append(reading.KVCacheKeys, cacheKey)
		if base.UserID != "" {
			reading.KVCacheKeys = append(reading.KVCacheKeys,
				core.UserCacheKey(base.UserID, reading.EngineName, "reading", reading.ReadingID))
		}
	}
}

// retentionDays resolves the effective retention, clamped to the
// category maximum. Biometric readings never outlive the biometric cap.
func (o *Orchestrator) retentionDays(base *core.BaseInput) int {
	days := o.opts.DefaultRetentionDays
	if base.RetentionDays != nil {
		days = *base.RetentionDays
	}
	if days > o.opts.MaxRetentionDays {
		days = o.opts.MaxRetentionDays
	}
	if base.PrivacyLevel.IsBiometric() && days > o.opts.BiometricMaxDays {
		days = o.opts.BiometricMaxDays
	}
	return days
}

// writeAsync commits the cache entries and the persistence row after
// the response is released. Every key listed in KVCacheKeys is written,
// so the envelope never advertises a key the cache does not hold. The
// writes run detached from the request deadline under the persist
// deadline; failures are logged and swallowed.
func (o *Orchestrator) writeAsync(ctx context.Context, reading *core.Reading, base *core.BaseInput) {
	writeCache := base.CacheResult && o.opts.Cache != nil
	writeStore := base.StoreReading && o.opts.Store != nil
	if !writeCache && !writeStore {
		return
	}
	log := logger.FromContext(ctx)
	snapshot := *reading
	snapshot.StorageMetadata = make(map[string]any, len(reading.StorageMetadata))
	for k, v := range reading.StorageMetadata {
		snapshot.StorageMetadata[k] = v
	}

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.PersistTimeout)
		defer cancel()
		backoff := retry.WithMaxRetries(2, retry.NewExponential(50*time.Millisecond))

		if writeCache {
			for _, key := range snapshot.KVCacheKeys {
				err := retry.Do(bgCtx, backoff, func(ctx context.Context) error {
					return retry.RetryableError(o.opts.Cache.PutReading(ctx, key, &snapshot, o.opts.CacheTTL))
				})
				if err != nil {
					log.Warn("cache write dropped", "engine", snapshot.EngineName, "cache_key", key, "error", err)
				}
			}
		}
		if writeStore {
			err := retry.Do(bgCtx, backoff, func(ctx context.Context) error {
				return retry.RetryableError(o.opts.Store.SaveReading(ctx, &snapshot))
			})
			if err != nil {
				log.Error("reading persistence dropped",
					"engine", snapshot.EngineName, "reading_id", snapshot.ReadingID, "error", err)
			}
		}
	}()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
