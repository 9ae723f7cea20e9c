package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/artifacts"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/events"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/notify"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/research"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/runs"
)

// RunRequest is the body of POST /research.
type RunRequest struct {
	Topic      string   `json:"topic" binding:"required"`
	Depth      string   `json:"depth"`
	Domains    []string `json:"domains"`
	MaxSources int      `json:"max_sources" binding:"omitempty,gte=1,lte=20"`
}

// API holds the route handlers' dependencies.
type API struct {
	Version   string
	Model     string
	Provider  string
	KeepAlive time.Duration

	Bus       *events.Bus
	Registry  *runs.Registry
	Engine    *research.Engine
	Stages    *research.Stages
	Artifacts *artifacts.Store
	Webhook   *notify.Webhook

	log *logger.Logger
}

// Register mounts all routes on the engine.
func (a *API) Register(engine *gin.Engine) {
	a.log = logger.WithComponent("api")

	engine.GET("/", a.root)
	engine.GET("/healthz", a.healthz)
	engine.GET("/events", events.StreamHandler(a.Bus, a.KeepAlive))

	engine.POST("/research", a.createRun)
	engine.GET("/runs", a.listRuns)
	engine.GET("/runs/:id", a.getRun)
	engine.GET("/runs/:id/report", a.getReport)
	engine.POST("/runs/:id/notify", a.resendNotify)
}

func (a *API) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "research orchestrator is running, see /healthz and /events",
	})
}

func (a *API) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"service":         "research-orchestrator",
		"version":         a.Version,
		"model":           a.Model,
		"search_provider": a.Provider,
	})
}

// createRun starts a research run. It returns the run ID immediately;
// execution happens asynchronously and is observable via /events.
func (a *API) createRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if req.Depth == "" {
		req.Depth = research.DepthStandard
	}

	run := a.Registry.Create(req.Topic, req.Depth)
	state := research.NewState(run.ID, req.Topic, req.Depth, req.Domains, req.MaxSources)

	// Detach from the request context: the run outlives this request.
	go a.Engine.Execute(context.Background(), state)

	c.JSON(http.StatusOK, gin.H{"run_id": run.ID})
}

func (a *API) getRun(c *gin.Context) {
	run, ok := a.Registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (a *API) listRuns(c *gin.Context) {
	c.JSON(http.StatusOK, a.Registry.List())
}

// getReport serves the run's Markdown report, inline or as a download.
func (a *API) getReport(c *gin.Context) {
	id := c.Param("id")
	content, ok := a.Artifacts.Read(id, research.ReportFilename)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report_not_found"})
		return
	}

	if c.Query("inline") == "true" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(content))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"-report.md"))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(content))
}

// resendNotify re-sends the stored report to the outbound webhook.
func (a *API) resendNotify(c *gin.Context) {
	id := c.Param("id")
	run, ok := a.Registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not_found"})
		return
	}

	report, _ := a.Artifacts.Read(id, research.ReportFilename)
	state := research.State{
		RunID:    id,
		Topic:    run.Topic,
		Depth:    run.Depth,
		ReportMD: report,
	}
	payload := a.Stages.BuildNotifyPayload(state, a.Artifacts.Path(id, research.ReportFilename))

	status, text, sent := a.Webhook.Notify(c.Request.Context(), payload)
	if !sent {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "webhook_not_configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":     status >= 200 && status < 300,
		"result": gin.H{"status": status, "response": text},
	})
}
