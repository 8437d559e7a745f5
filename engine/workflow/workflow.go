// Package workflow composes multi-engine readings from named recipes.
// A recipe declares which engines run, in which mode, and the per-engine
// input overrides layered over the caller input before dispatch.
package workflow

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"dario.cat/mergo"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/orchestrator"
	"github.com/auralab/aura/engine/schema"
	"github.com/auralab/aura/engine/synthesis"
	"github.com/auralab/aura/pkg/logger"
	"github.com/mohae/deepcopy"
)

// Runner is the slice of the orchestrator the manager needs.
type Runner interface {
	RunMany(ctx context.Context, requests []orchestrator.Request, mode core.RunMode) map[string]orchestrator.Result
}

// Recipe is one named workflow.
type Recipe struct {
	Name        string       `validate:"required"`
	Description string       `validate:"required"`
	Mode        core.RunMode `validate:"oneof=sequential parallel"`
	Engines     []string     `validate:"min=1,dive,required"`
	// Overrides are merged over the caller input per engine; an override
	// value wins on key collision.
	Overrides map[string]core.Input
	Synthesis synthesis.Options
	Insight   string
}

// Validate checks the recipe shape and that overrides only target
// engines the recipe actually runs.
func (r *Recipe) Validate(ctx context.Context) error {
	v := schema.NewCompositeValidator(
		schema.NewStructValidator(r),
		schema.ValidatorFunc(func(context.Context) error {
			for engine := range r.Overrides {
				if !slices.Contains(r.Engines, engine) {
					return fmt.Errorf("override targets engine %q which the recipe does not run", engine)
				}
			}
			return nil
		}),
	)
	if err := v.Validate(ctx); err != nil {
		return fmt.Errorf("workflow %q: %w", r.Name, err)
	}
	return nil
}

// Manager resolves recipes and drives them through a Runner.
type Manager struct {
	runner  Runner
	recipes map[string]Recipe
}

func NewManager(runner Runner) *Manager {
	m := &Manager{runner: runner, recipes: make(map[string]Recipe, len(defaultRecipes))}
	for _, r := range defaultRecipes {
		if err := m.Register(r); err != nil {
			panic(err)
		}
	}
	return m
}

// Register validates a recipe and adds it to the manager. Registering
// over an existing name replaces it.
func (m *Manager) Register(r Recipe) error {
	if err := r.Validate(context.Background()); err != nil {
		return err
	}
	m.recipes[r.Name] = r
	return nil
}

// Names lists the registered workflow names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.recipes))
	for name := range m.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get resolves a recipe by name.
func (m *Manager) Get(name string) (Recipe, error) {
	r, ok := m.recipes[name]
	if !ok {
		return Recipe{}, core.UnknownWorkflowError(name)
	}
	return r, nil
}

// Run executes a named workflow: per-engine dispatch, synthesis over the
// successful outputs, and the composed result document.
func (m *Manager) Run(ctx context.Context, name string, input core.Input) (core.Output, error) {
	recipe, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	requests := make([]orchestrator.Request, 0, len(recipe.Engines))
	for _, engine := range recipe.Engines {
		requests = append(requests, orchestrator.Request{
			Engine: engine,
			Input:  m.engineInput(input, recipe.Overrides[engine]),
		})
	}
	results := m.runner.RunMany(ctx, requests, recipe.Mode)

	outputs := make(map[string]core.Output, len(results))
	engineResults := make(map[string]any, len(results))
	recommendations := []string{}
	failed := []string{}
	for _, engine := range recipe.Engines {
		res := results[engine]
		if res.Err != nil {
			typed := core.AsError(res.Err, engine)
			engineResults[engine] = map[string]any{"success": false, "error": typed}
			failed = append(failed, engine)
			log.Warn("workflow engine failed", "workflow", name, "engine", engine, "error", typed)
			continue
		}
		engineResults[engine] = map[string]any{"success": true, "reading": res.Reading}
		outputs[engine] = res.Reading.RawData
		recommendations = append(recommendations, res.Reading.Recommendations...)
	}

	doc := synthesis.Synthesize(outputs, recipe.Synthesis)
	if patches, ok := doc["reality_patches"].([]string); ok {
		recommendations = append(recommendations, patches...)
	}

	return core.Output{
		"workflow_name":     name,
		"input":             input,
		"engine_results":    engineResults,
		"synthesis":         doc,
		"workflow_insights": m.insights(recipe, len(outputs), failed),
		"recommendations":   recommendations,
	}, nil
}

// engineInput layers a recipe override over a deep copy of the caller
// input so workflows never mutate the request across engines.
func (m *Manager) engineInput(input core.Input, override core.Input) core.Input {
	merged, _ := deepcopy.Copy(map[string]any(input)).(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	if len(override) > 0 {
		if err := mergo.Merge(&merged, map[string]any(override), mergo.WithOverride); err != nil {
			// Merge over plain maps cannot fail; fall back to the override
			// winning key-by-key.
			for k, v := range override {
				merged[k] = v
			}
		}
	}
	return core.Input(merged)
}

func (m *Manager) insights(recipe Recipe, succeeded int, failed []string) []string {
	insights := []string{recipe.Insight}
	insights = append(insights,
		fmt.Sprintf("%d of %d engines contributed to this synthesis", succeeded, len(recipe.Engines)))
	if len(failed) > 0 {
		insights = append(insights,
			fmt.Sprintf("Engines unavailable for this run: %v", failed))
	}
	return insights
}

var defaultRecipes = []Recipe{
	{
		Name:        "complete_natal",
		Description: "Full natal profile across the structural engines",
		Mode:        core.ModeParallel,
		Engines:     []string{"numerology", "human_design", "gene_keys", "vimshottari", "enneagram"},
		Insight:     "Your natal pattern is read from five independent systems; trust the overlaps",
	},
	{
		Name:        "relationship_compatibility",
		Description: "Relational dynamics and connection potential",
		Mode:        core.ModeParallel,
		Engines:     []string{"numerology", "human_design", "tarot"},
		Overrides: map[string]core.Input{
			"tarot": {"spread_type": "relationship"},
		},
		Synthesis: synthesis.Options{Themes: []string{"relationships", "challenges", "gifts"}},
		Insight:   "Compatibility lives in how the charts differ, not only where they agree",
	},
	{
		Name:        "career_guidance",
		Description: "Vocation, strengths, and right work",
		Mode:        core.ModeParallel,
		Engines:     []string{"numerology", "human_design", "enneagram", "tarot"},
		Overrides: map[string]core.Input{
			"tarot": {"spread_type": "three_card"},
		},
		Synthesis: synthesis.Options{Themes: []string{"career", "purpose", "gifts"}},
		Insight:   "Align work with your decision-making authority before optimizing for outcomes",
	},
	{
		Name:        "spiritual_development",
		Description: "Contemplative path and inner work sequence",
		Mode:        core.ModeParallel,
		Engines:     []string{"gene_keys", "iching", "tarot", "sacred_geometry"},
		Overrides: map[string]core.Input{
			"tarot": {"spread_type": "celtic_cross"},
		},
		Synthesis: synthesis.Options{Themes: []string{"purpose", "growth", "gifts"}},
		Insight:   "Development follows the shadow-gift-siddhi arc; start where the friction is",
	},
	{
		Name:        "life_transition",
		Description: "Navigation through a period of change",
		Mode:        core.ModeParallel,
		Engines:     []string{"tarot", "iching", "vimshottari", "biorhythm"},
		Synthesis:   synthesis.Options{Themes: []string{"challenges", "growth"}},
		Insight:     "Transitions resolve on their own timeline; the periods show you which one",
	},
	{
		Name:        "daily_guidance",
		Description: "Today's rhythm, timing windows, and a single card",
		Mode:        core.ModeSequential,
		Engines:     []string{"vedicclock_tcm", "biorhythm", "tarot"},
		Overrides: map[string]core.Input{
			"tarot": {"spread_type": "single"},
		},
		Insight: "Small daily alignments compound; schedule against the open windows",
	},
	{
		Name:        "shadow_work",
		Description: "Shadow patterns and their integration doors",
		Mode:        core.ModeParallel,
		Engines:     []string{"gene_keys", "enneagram", "tarot"},
		Overrides: map[string]core.Input{
			"tarot": {"spread_type": "celtic_cross"},
		},
		Synthesis: synthesis.Options{Themes: []string{"challenges", "growth"}},
		Insight:   "The shadow names the gift; each avoided pattern points at unlived capacity",
	},
	{
		Name:        "manifestation_timing",
		Description: "When and how to act on an intention",
		Mode:        core.ModeParallel,
		Engines:     []string{"biorhythm", "vimshottari", "vedicclock_tcm", "sacred_geometry", "sigil_forge"},
		Synthesis:   synthesis.Options{Themes: []string{"purpose", "career"}},
		Insight:     "Intention plus timing beats intention plus effort; act inside the windows",
	},
}
