package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/infra/postgres"
	"github.com/auralab/aura/engine/infra/server/router"
	"github.com/gin-gonic/gin"
)

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)
	r.GET("/engines", s.handleEngines)
	r.POST("/engines/:name/calculate", s.handleCalculate)
	r.GET("/workflows", s.handleWorkflows)
	r.POST("/workflows/:name/run", s.handleWorkflowRun)
	r.POST("/swiss_ephemeris/calculate", s.handleEphemeris)
	r.GET("/readings/:engine", s.handleReadingList)
	r.GET("/readings/:engine/:id", s.handleReading)
	r.GET("/metrics", gin.WrapH(s.deps.Monitoring.ExporterHandler()))

	admin := r.Group("/admin", adminAuth(&s.cfg.Auth))
	admin.POST("/retention/sweep", s.handleRetentionSweep)
	admin.POST("/cache/invalidate/:user", s.handleCacheInvalidate)
}

func (s *Server) handleHealth(c *gin.Context) {
	started := time.Now()
	router.RespondOK(c, "", started, gin.H{
		"status":  "healthy",
		"version": s.deps.Version,
		"engines": s.deps.Orchestrator.Registry().Names(),
	})
}

func (s *Server) handleEngines(c *gin.Context) {
	started := time.Now()
	registry := s.deps.Orchestrator.Registry()
	engines := make([]gin.H, 0, registry.Len())
	for _, name := range registry.Names() {
		eng, err := registry.Get(name)
		if err != nil {
			continue
		}
		engines = append(engines, gin.H{
			"name":          eng.Name(),
			"description":   eng.Description(),
			"input_schema":  eng.InputSchema(),
			"output_schema": eng.OutputSchema(),
		})
	}
	router.RespondOK(c, "", started, gin.H{"engines": engines})
}

type calculateBody struct {
	Input   core.Input `json:"input"`
	Options core.Input `json:"options"`
}

func (s *Server) handleCalculate(c *gin.Context) {
	started := time.Now()
	name := c.Param("name")
	var body calculateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		router.RespondError(c, name, started, core.InvalidInputError(name, "", "request body is not valid JSON", err))
		return
	}
	input := body.Input
	if input == nil {
		input = core.Input{}
	}
	// Options are caller-side controls (store_reading, cache_result,
	// retention_days, ...) layered over the engine input.
	for k, v := range body.Options {
		input[k] = v
	}
	ctx := c.Request.Context()
	reading, err := s.deps.Orchestrator.Run(ctx, name, input)
	s.deps.Monitoring.RecordEngineRun(ctx, name, time.Since(started), err)
	if err != nil {
		router.RespondError(c, name, started, err)
		return
	}
	router.RespondOK(c, name, started, reading)
}

func (s *Server) handleWorkflows(c *gin.Context) {
	started := time.Now()
	if s.deps.Workflows == nil {
		router.RespondError(c, "", started,
			core.DependencyUnavailableError("", "workflows", errors.New("workflow manager not configured")))
		return
	}
	router.RespondOK(c, "", started, gin.H{"workflows": s.deps.Workflows.Names()})
}

type workflowBody struct {
	Input core.Input `json:"input"`
}

func (s *Server) handleWorkflowRun(c *gin.Context) {
	started := time.Now()
	name := c.Param("name")
	if s.deps.Workflows == nil {
		router.RespondError(c, "", started,
			core.DependencyUnavailableError("", "workflows", errors.New("workflow manager not configured")))
		return
	}
	var body workflowBody
	if err := c.ShouldBindJSON(&body); err != nil {
		router.RespondError(c, "", started, core.InvalidInputError("", "", "request body is not valid JSON", err))
		return
	}
	input := body.Input
	if input == nil {
		input = core.Input{}
	}
	out, err := s.deps.Workflows.Run(c.Request.Context(), name, input)
	if err != nil {
		router.RespondError(c, "", started, err)
		return
	}
	router.RespondOK(c, "", started, out)
}

type ephemerisBody struct {
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Timezone  string   `json:"timezone"`
	JulianDay float64  `json:"julian_day"`
	Bodies    []string `json:"bodies"`
	Sidereal  bool     `json:"sidereal"`
}

const ephemerisEngine = "swiss_ephemeris"

func (s *Server) handleEphemeris(c *gin.Context) {
	started := time.Now()
	if s.deps.Ephemeris == nil {
		router.RespondError(c, ephemerisEngine, started,
			core.DependencyUnavailableError(ephemerisEngine, "ephemeris", errors.New("ephemeris not configured")))
		return
	}
	var body ephemerisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		router.RespondError(c, ephemerisEngine, started,
			core.InvalidInputError(ephemerisEngine, "", "request body is not valid JSON", err))
		return
	}
	jd, err := resolveJulianDay(&body)
	if err != nil {
		router.RespondError(c, ephemerisEngine, started, err)
		return
	}
	bodies, err := resolveBodies(body.Bodies)
	if err != nil {
		router.RespondError(c, ephemerisEngine, started, err)
		return
	}
	positions, err := s.deps.Ephemeris.PositionsAt(c.Request.Context(), jd, bodies, body.Sidereal)
	if err != nil {
		router.RespondError(c, ephemerisEngine, started,
			core.DependencyUnavailableError(ephemerisEngine, "ephemeris", err))
		return
	}
	astro.Derive(positions, bodies)
	router.RespondOK(c, ephemerisEngine, started, gin.H{
		"julian_day": jd,
		"sidereal":   body.Sidereal,
		"positions":  positions,
	})
}

func resolveJulianDay(body *ephemerisBody) (float64, error) {
	if body.JulianDay > 0 {
		return body.JulianDay, nil
	}
	if body.Date == "" {
		return astro.JulianDay(time.Now().UTC()), nil
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		return 0, core.InvalidInputError(ephemerisEngine, "date", "date must be YYYY-MM-DD", err)
	}
	clock := body.Time
	if clock == "" {
		clock = "12:00"
	}
	zone := body.Timezone
	if zone == "" {
		zone = "UTC"
	}
	civil, err := astro.LocalCivilTime(date, clock, zone)
	if err != nil {
		return 0, core.InvalidInputError(ephemerisEngine, "time", err.Error(), err)
	}
	return astro.JulianDay(civil), nil
}

func resolveBodies(names []string) ([]astro.Body, error) {
	if len(names) == 0 {
		return astro.Bodies(), nil
	}
	known := make(map[astro.Body]bool, len(astro.Bodies()))
	for _, b := range astro.Bodies() {
		known[b] = true
	}
	bodies := make([]astro.Body, 0, len(names))
	for _, n := range names {
		b := astro.Body(n)
		if !known[b] {
			return nil, core.InvalidInputError(ephemerisEngine, "bodies", "unknown body: "+n, nil)
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

func (s *Server) handleReading(c *gin.Context) {
	started := time.Now()
	engine := c.Param("engine")
	if s.deps.Readings == nil {
		router.RespondError(c, engine, started,
			core.DependencyUnavailableError(engine, "reading_store", errors.New("reading store not configured")))
		return
	}
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		router.RespondError(c, engine, started, core.InvalidInputError(engine, "id", "malformed reading id", err))
		return
	}
	reading, err := s.deps.Readings.GetByID(c.Request.Context(), engine, id)
	if err != nil {
		if errors.Is(err, postgres.ErrReadingNotFound) {
			c.JSON(http.StatusNotFound, router.Response{
				Success: false,
				Error: &router.RequestError{
					Kind:    "NOT_FOUND",
					Message: "reading not found",
					Engine:  engine,
				},
				ProcessingTimeSeconds: time.Since(started).Seconds(),
				Timestamp:             time.Now().UTC().Format(time.RFC3339),
				Engine:                engine,
			})
			return
		}
		router.RespondError(c, engine, started, core.DependencyUnavailableError(engine, "reading_store", err))
		return
	}
	router.RespondOK(c, engine, started, reading)
}

func (s *Server) handleReadingList(c *gin.Context) {
	started := time.Now()
	engine := c.Param("engine")
	if s.deps.Readings == nil {
		router.RespondError(c, engine, started,
			core.DependencyUnavailableError(engine, "reading_store", errors.New("reading store not configured")))
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		router.RespondError(c, engine, started, core.InvalidInputError(engine, "user_id", "user_id query parameter is required", nil))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			router.RespondError(c, engine, started, core.InvalidInputError(engine, "limit", "limit must be a positive integer", err))
			return
		}
		limit = parsed
	}
	readings, err := s.deps.Readings.ListByUser(c.Request.Context(), engine, userID, limit)
	if err != nil {
		router.RespondError(c, engine, started, core.DependencyUnavailableError(engine, "reading_store", err))
		return
	}
	router.RespondOK(c, engine, started, gin.H{"readings": readings, "count": len(readings)})
}

func (s *Server) handleRetentionSweep(c *gin.Context) {
	started := time.Now()
	if s.deps.Sweeper == nil {
		router.RespondError(c, "", started,
			core.DependencyUnavailableError("", "reaper", errors.New("retention reaper not configured")))
		return
	}
	removed, err := s.deps.Sweeper.RunOnce(c.Request.Context())
	if err != nil {
		router.RespondError(c, "", started, core.DependencyUnavailableError("", "reading_store", err))
		return
	}
	router.RespondOK(c, "", started, gin.H{"rows_removed": removed})
}

func (s *Server) handleCacheInvalidate(c *gin.Context) {
	started := time.Now()
	if s.deps.Cache == nil {
		router.RespondError(c, "", started,
			core.DependencyUnavailableError("", "cache", errors.New("cache not configured")))
		return
	}
	removed, err := s.deps.Cache.InvalidateUser(c.Request.Context(), c.Param("user"))
	if err != nil {
		router.RespondError(c, "", started, core.DependencyUnavailableError("", "cache", err))
		return
	}
	router.RespondOK(c, "", started, gin.H{"keys_removed": removed})
}
