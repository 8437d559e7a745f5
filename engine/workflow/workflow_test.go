package workflow

import (
	"context"
	"testing"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records the dispatched requests and serves canned results.
type fakeRunner struct {
	requests []orchestrator.Request
	mode     core.RunMode
	results  map[string]orchestrator.Result
}

func (f *fakeRunner) RunMany(_ context.Context, requests []orchestrator.Request, mode core.RunMode) map[string]orchestrator.Result {
	f.requests = requests
	f.mode = mode
	out := make(map[string]orchestrator.Result, len(requests))
	for _, req := range requests {
		if res, ok := f.results[req.Engine]; ok {
			out[req.Engine] = res
			continue
		}
		out[req.Engine] = orchestrator.Result{Reading: &core.Reading{
			EngineName:      req.Engine,
			RawData:         core.Output{"engine": req.Engine},
			Recommendations: []string{"rec from " + req.Engine},
		}}
	}
	return out
}

func TestRecipeValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should accept every built-in recipe", func(t *testing.T) {
		for _, r := range defaultRecipes {
			assert.NoError(t, r.Validate(ctx), "recipe %s", r.Name)
		}
	})
	t.Run("Should reject a recipe without engines", func(t *testing.T) {
		m := NewManager(&fakeRunner{})
		err := m.Register(Recipe{
			Name:        "empty",
			Description: "runs nothing",
			Mode:        core.ModeParallel,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})
	t.Run("Should reject an unknown run mode", func(t *testing.T) {
		m := NewManager(&fakeRunner{})
		err := m.Register(Recipe{
			Name:        "bad_mode",
			Description: "mode typo",
			Mode:        core.RunMode("sideways"),
			Engines:     []string{"tarot"},
		})
		require.Error(t, err)
	})
	t.Run("Should reject overrides for engines the recipe does not run", func(t *testing.T) {
		m := NewManager(&fakeRunner{})
		err := m.Register(Recipe{
			Name:        "stray_override",
			Description: "override misses",
			Mode:        core.ModeParallel,
			Engines:     []string{"tarot"},
			Overrides:   map[string]core.Input{"iching": {"question": "?"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "iching")
	})
	t.Run("Should run a registered custom recipe", func(t *testing.T) {
		runner := &fakeRunner{}
		m := NewManager(runner)
		require.NoError(t, m.Register(Recipe{
			Name:        "quick_draw",
			Description: "one card",
			Mode:        core.ModeParallel,
			Engines:     []string{"tarot"},
			Insight:     "One card is enough when the question is sharp",
		}))
		out, err := m.Run(ctx, "quick_draw", core.Input{})
		require.NoError(t, err)
		assert.Equal(t, "quick_draw", out["workflow_name"])
	})
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Should expose the eight named workflows", func(t *testing.T) {
		m := NewManager(&fakeRunner{})
		assert.Equal(t, []string{
			"career_guidance",
			"complete_natal",
			"daily_guidance",
			"life_transition",
			"manifestation_timing",
			"relationship_compatibility",
			"shadow_work",
			"spiritual_development",
		}, m.Names())
	})
	t.Run("Should reject unknown workflows", func(t *testing.T) {
		m := NewManager(&fakeRunner{})
		_, err := m.Run(ctx, "nope", core.Input{})
		require.Error(t, err)
		assert.Equal(t, core.ErrKindUnknownWorkflow, core.KindOf(err))
	})
	t.Run("Should dispatch the recipe's engines in its mode", func(t *testing.T) {
		runner := &fakeRunner{}
		m := NewManager(runner)
		_, err := m.Run(ctx, "daily_guidance", core.Input{"birth_date": "1990-05-15"})
		require.NoError(t, err)
		assert.Equal(t, core.ModeSequential, runner.mode)
		require.Len(t, runner.requests, 3)
		assert.Equal(t, "vedicclock_tcm", runner.requests[0].Engine)
		assert.Equal(t, "biorhythm", runner.requests[1].Engine)
		assert.Equal(t, "tarot", runner.requests[2].Engine)
	})
	t.Run("Should layer per-engine overrides over the caller input", func(t *testing.T) {
		runner := &fakeRunner{}
		m := NewManager(runner)
		_, err := m.Run(ctx, "relationship_compatibility", core.Input{
			"birth_date": "1990-05-15",
			"question":   "How do we grow together?",
		})
		require.NoError(t, err)

		var tarotInput core.Input
		for _, req := range runner.requests {
			if req.Engine == "tarot" {
				tarotInput = req.Input
			}
		}
		require.NotNil(t, tarotInput)
		assert.Equal(t, "relationship", tarotInput["spread_type"])
		assert.Equal(t, "How do we grow together?", tarotInput["question"])
		// The caller input itself must stay untouched.
		for _, req := range runner.requests {
			if req.Engine != "tarot" {
				assert.NotContains(t, req.Input, "spread_type")
			}
		}
	})
	t.Run("Should compose the full result document", func(t *testing.T) {
		m := NewManager(&fakeRunner{})
		out, err := m.Run(ctx, "complete_natal", core.Input{"birth_date": "1990-05-15"})
		require.NoError(t, err)

		assert.Equal(t, "complete_natal", out["workflow_name"])
		results := out["engine_results"].(map[string]any)
		assert.Len(t, results, 5)
		for _, engine := range []string{"numerology", "human_design", "gene_keys", "vimshottari", "enneagram"} {
			entry := results[engine].(map[string]any)
			assert.Equal(t, true, entry["success"])
		}
		assert.NotNil(t, out["synthesis"])
		insights := out["workflow_insights"].([]string)
		require.NotEmpty(t, insights)
		assert.Contains(t, insights, "5 of 5 engines contributed to this synthesis")
		recs := out["recommendations"].([]string)
		assert.Contains(t, recs, "rec from numerology")
	})
	t.Run("Should keep engine failures inside the result", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]orchestrator.Result{
			"vimshottari": {Err: core.DependencyUnavailableError("vimshottari", "ephemeris", nil)},
		}}
		m := NewManager(runner)
		out, err := m.Run(ctx, "complete_natal", core.Input{"birth_date": "1990-05-15"})
		require.NoError(t, err)

		results := out["engine_results"].(map[string]any)
		entry := results["vimshottari"].(map[string]any)
		assert.Equal(t, false, entry["success"])
		typed := entry["error"].(*core.Error)
		assert.Equal(t, core.ErrKindDependencyUnavailable, typed.Kind)
		insights := out["workflow_insights"].([]string)
		assert.Contains(t, insights, "4 of 5 engines contributed to this synthesis")
	})
	t.Run("Should append the synthesis reality patches to the recommendations", func(t *testing.T) {
		m := NewManager(&fakeRunner{})
		out, err := m.Run(ctx, "shadow_work", core.Input{"birth_date": "1990-05-15"})
		require.NoError(t, err)
		recs := out["recommendations"].([]string)
		assert.Contains(t, recs, "Evolution acceleration: act on the strongest synthesis theme within 48 hours")
	})
}
