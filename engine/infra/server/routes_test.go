package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/infra/monitoring"
	"github.com/auralab/aura/engine/infra/postgres"
	"github.com/auralab/aura/engine/infra/server/router"
	"github.com/auralab/aura/engine/orchestrator"
	"github.com/auralab/aura/engine/schema"
	"github.com/auralab/aura/engine/workflow"
	"github.com/auralab/aura/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoEngine struct{}

func (echoEngine) Name() string        { return "echo" }
func (echoEngine) Description() string { return "echoes its input back" }

func (echoEngine) InputSchema() *schema.Schema {
	return core.InputSchema(map[string]any{
		"word": map[string]any{"type": "string"},
	})
}

func (echoEngine) OutputSchema() *schema.Schema {
	return core.OutputSchema(map[string]any{"echo": map[string]any{"type": "string"}})
}

func (echoEngine) Calculate(_ context.Context, input core.Input) (core.Output, error) {
	word, _ := input["word"].(string)
	return core.Output{"echo": word}, nil
}

func (echoEngine) Interpret(_ context.Context, raw core.Output, _ core.Input) (string, error) {
	return "echo: " + raw["echo"].(string), nil
}

type fakeReadings struct {
	readings map[core.ID]*core.Reading
}

func (f *fakeReadings) GetByID(_ context.Context, _ string, id core.ID) (*core.Reading, error) {
	if r, ok := f.readings[id]; ok {
		return r, nil
	}
	return nil, postgres.ErrReadingNotFound
}

func (f *fakeReadings) ListByUser(_ context.Context, _ string, userID string, _ int) ([]*core.Reading, error) {
	out := make([]*core.Reading, 0)
	for _, r := range f.readings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, mutate func(cfg *config.Config, deps *Dependencies)) *Server {
	t.Helper()
	ctx := context.Background()
	registry := core.NewRegistry()
	registry.MustRegister(echoEngine{})
	orch := orchestrator.New(orchestrator.Options{Registry: registry})
	mon, err := monitoring.NewService(ctx, monitoring.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { mon.Shutdown(ctx) })

	cfg := config.Default()
	deps := Dependencies{
		Orchestrator: orch,
		Workflows:    workflow.NewManager(orch),
		Readings:     &fakeReadings{readings: map[core.ID]*core.Reading{}},
		Ephemeris:    astro.NewStub(),
		Monitoring:   mon,
		Version:      "test",
	}
	if mutate != nil {
		mutate(cfg, &deps)
	}
	srv, err := NewServer(ctx, cfg, deps)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, router.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	var resp router.Response
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func dataMap(t *testing.T, resp router.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %v", resp.Data)
	return m
}

func TestHealthAndListing(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("Should report healthy with the engine roster", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/health", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		data := dataMap(t, resp)
		assert.Equal(t, "healthy", data["status"])
		assert.Equal(t, "test", data["version"])
		assert.Contains(t, data["engines"], "echo")
	})
	t.Run("Should list engine descriptors with schemas", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/engines", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		engines, ok := dataMap(t, resp)["engines"].([]any)
		require.True(t, ok)
		require.Len(t, engines, 1)
		first := engines[0].(map[string]any)
		assert.Equal(t, "echo", first["name"])
		assert.NotEmpty(t, first["description"])
		assert.NotNil(t, first["input_schema"])
	})
	t.Run("Should list workflows", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/workflows", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, dataMap(t, resp)["workflows"], "daily_guidance")
	})
	t.Run("Should expose the prometheus scrape endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCalculate(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("Should run an engine and wrap the reading", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/engines/echo/calculate",
			map[string]any{"input": map[string]any{"word": "hello"}}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "echo", resp.Engine)
		data := dataMap(t, resp)
		assert.Equal(t, "echo", data["engine_name"])
		assert.Equal(t, "echo: hello", data["formatted_output"])
	})
	t.Run("Should layer options over the input", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/engines/echo/calculate",
			map[string]any{
				"input":   map[string]any{"word": "hello"},
				"options": map[string]any{"store_reading": false},
			}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := dataMap(t, resp)
		assert.Nil(t, data["expires_at"])
	})
	t.Run("Should answer 404 for an unknown engine", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/engines/nope/calculate",
			map[string]any{"input": map[string]any{}}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "UNKNOWN_ENGINE", resp.Error.Kind)
	})
	t.Run("Should answer 400 for an unknown input field", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/engines/echo/calculate",
			map[string]any{"input": map[string]any{"wrod": "typo"}}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_INPUT", resp.Error.Kind)
	})
	t.Run("Should answer 400 for a malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/engines/echo/calculate", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWorkflowRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("Should answer 404 for an unknown workflow", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/workflows/nope/run",
			map[string]any{"input": map[string]any{}}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "UNKNOWN_WORKFLOW", resp.Error.Kind)
	})
	t.Run("Should run a known workflow end to end", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/workflows/daily_guidance/run",
			map[string]any{"input": map[string]any{"birth_date": "1990-06-15"}}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := dataMap(t, resp)
		assert.Equal(t, "daily_guidance", data["workflow_name"])
		assert.NotNil(t, data["engine_results"])
	})
}

func TestEphemerisRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("Should compute positions for the requested bodies", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/swiss_ephemeris/calculate",
			map[string]any{
				"date":     "1990-06-15",
				"time":     "08:30",
				"timezone": "UTC",
				"bodies":   []string{"sun", "earth"},
			}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := dataMap(t, resp)
		assert.Greater(t, data["julian_day"], 2400000.0)
		positions := data["positions"].(map[string]any)
		assert.Contains(t, positions, "sun")
		assert.Contains(t, positions, "earth")
	})
	t.Run("Should reject a malformed date", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/swiss_ephemeris/calculate",
			map[string]any{"date": "15/06/1990"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "date", resp.Error.Field)
	})
	t.Run("Should reject an unknown body", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/swiss_ephemeris/calculate",
			map[string]any{"bodies": []string{"vulcan"}}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bodies", resp.Error.Field)
	})
}

func TestReadingRoute(t *testing.T) {
	stored := &core.Reading{
		EngineName:      "echo",
		ReadingID:       core.MustNewID(),
		UserID:          "u-1",
		FormattedOutput: "echo: stored",
	}
	srv := newTestServer(t, func(_ *config.Config, deps *Dependencies) {
		deps.Readings = &fakeReadings{readings: map[core.ID]*core.Reading{stored.ReadingID: stored}}
	})

	t.Run("Should fetch a stored reading", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/readings/echo/"+stored.ReadingID.String(), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "echo: stored", dataMap(t, resp)["formatted_output"])
	})
	t.Run("Should answer 404 for a missing reading", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/readings/echo/"+core.MustNewID().String(), nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", resp.Error.Kind)
	})
	t.Run("Should reject a malformed reading id", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/readings/echo/not-a-ksuid", nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_INPUT", resp.Error.Kind)
	})
	t.Run("Should list readings for a user", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/readings/echo?user_id=u-1", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), dataMap(t, resp)["count"])
	})
	t.Run("Should require user_id on the list route", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodGet, "/readings/echo", nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "user_id", resp.Error.Field)
	})
}

type fakeSweeper struct {
	rows int64
}

func (f *fakeSweeper) RunOnce(context.Context) (int64, error) { return f.rows, nil }

func TestAdminRoutes(t *testing.T) {
	const adminKey = "super-secret"
	sum := sha256.Sum256([]byte(adminKey))
	keyHash := hex.EncodeToString(sum[:])

	t.Run("Should refuse admin routes when auth is not configured", func(t *testing.T) {
		srv := newTestServer(t, func(_ *config.Config, deps *Dependencies) {
			deps.Sweeper = &fakeSweeper{}
		})
		rec, _ := doJSON(t, srv, http.MethodPost, "/admin/retention/sweep", nil, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("Should refuse a wrong admin key", func(t *testing.T) {
		srv := newTestServer(t, func(cfg *config.Config, deps *Dependencies) {
			cfg.Auth.Enabled = true
			cfg.Auth.AdminAPIKeyHash = config.SensitiveString(keyHash)
			deps.Sweeper = &fakeSweeper{}
		})
		rec, _ := doJSON(t, srv, http.MethodPost, "/admin/retention/sweep", nil,
			map[string]string{"X-Admin-API-Key": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("Should sweep retention with the right key", func(t *testing.T) {
		srv := newTestServer(t, func(cfg *config.Config, deps *Dependencies) {
			cfg.Auth.Enabled = true
			cfg.Auth.AdminAPIKeyHash = config.SensitiveString(keyHash)
			deps.Sweeper = &fakeSweeper{rows: 12}
		})
		rec, resp := doJSON(t, srv, http.MethodPost, "/admin/retention/sweep", nil,
			map[string]string{"X-Admin-API-Key": adminKey})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(12), dataMap(t, resp)["rows_removed"])
	})
}
