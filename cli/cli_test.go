package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/auralab/aura/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Run("Should register the full command tree", func(t *testing.T) {
		root := RootCmd()
		names := make([]string, 0)
		for _, c := range root.Commands() {
			names = append(names, c.Name())
		}
		assert.Contains(t, names, "serve")
		assert.Contains(t, names, "engines")
		assert.Contains(t, names, "calc")
		assert.Contains(t, names, "workflow")
		assert.Contains(t, names, "version")
	})
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Should decode a success envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/engines/numerology/calculate", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "1990-06-15", body["input"].(map[string]any)["birth_date"])
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"engine_name": "numerology"},
				"engine":  "numerology",
			})
		}))
		defer srv.Close()

		env, err := NewClient(srv.URL).Calculate(ctx, "numerology", core.Input{"birth_date": "1990-06-15"}, nil)
		require.NoError(t, err)
		assert.True(t, env.Success)
		assert.Equal(t, "numerology", env.Engine)
	})
	t.Run("Should surface the typed error from a failure envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   map[string]any{"kind": "UNKNOWN_ENGINE", "message": "unknown engine: nope"},
			})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Calculate(ctx, "nope", core.Input{}, nil)
		require.Error(t, err)
		var envErr *EnvelopeError
		require.ErrorAs(t, err, &envErr)
		assert.Equal(t, "UNKNOWN_ENGINE", envErr.Kind)
	})
}

func TestInputFromFlags(t *testing.T) {
	t.Run("Should prefer the input file over inline JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"word":"file"}`), 0o600))

		cmd := CalcCmd()
		require.NoError(t, cmd.Flags().Set("input", `{"word":"inline"}`))
		require.NoError(t, cmd.Flags().Set("input-file", path))

		input, err := inputFromFlags(cmd.Flags(), "input", "input-file")
		require.NoError(t, err)
		assert.Equal(t, "file", input["word"])
	})
	t.Run("Should reject inline input that is not JSON", func(t *testing.T) {
		cmd := CalcCmd()
		require.NoError(t, cmd.Flags().Set("input", "{nope"))
		_, err := inputFromFlags(cmd.Flags(), "input", "input-file")
		require.Error(t, err)
	})
}
