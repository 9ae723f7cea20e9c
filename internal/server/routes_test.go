package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/artifacts"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/events"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/notify"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/research"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/runs"
)

type apiFixture struct {
	api      *API
	engine   *gin.Engine
	registry *runs.Registry
	store    *artifacts.Store
}

// newAPIFixture builds an API over a pipeline whose single stage blocks until
// release is closed, so tests can observe the asynchronous run boundary.
func newAPIFixture(t *testing.T, release <-chan struct{}) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := events.NewBus(32)
	registry := runs.NewRegistry()
	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	webhook := notify.NewWebhook("", "")
	stages := research.NewStages(bus, nil, "test-model", nil, "tavily", store, webhook)

	stage := research.Stage{
		Name:  "plan",
		Agent: "planner",
		Run: func(ctx context.Context, st research.State) (research.State, map[string]any, error) {
			if release != nil {
				<-release
			}
			return st, nil, nil
		},
	}
	engine := research.NewEngine(bus, registry, []research.Stage{stage})

	api := &API{
		Version:   "0.1.0",
		Model:     "test-model",
		Provider:  "tavily",
		KeepAlive: time.Minute,
		Bus:       bus,
		Registry:  registry,
		Engine:    engine,
		Stages:    stages,
		Artifacts: store,
		Webhook:   webhook,
	}
	ge := gin.New()
	api.Register(ge)
	return &apiFixture{api: api, engine: ge, registry: registry, store: store}
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestCreateRun_ReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	f := newAPIFixture(t, release)

	start := time.Now()
	w := f.do("POST", "/research", `{"topic":"agent memory"}`)
	elapsed := time.Since(start)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if elapsed > time.Second {
		t.Errorf("expected immediate response, took %v", elapsed)
	}

	var resp struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID == "" {
		t.Fatal("expected run_id in response")
	}

	// The run exists while the stage is still blocked.
	run, ok := f.registry.Get(resp.RunID)
	if !ok {
		t.Fatal("expected run to be registered")
	}
	if run.Topic != "agent memory" || run.Depth != research.DepthStandard {
		t.Errorf("unexpected run: %+v", run)
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		run, _ = f.registry.Get(resp.RunID)
		if run.Status == runs.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never completed, status %q", run.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCreateRun_ValidatesBody(t *testing.T) {
	f := newAPIFixture(t, nil)

	if w := f.do("POST", "/research", `{"depth":"quick"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing topic: expected 400, got %d", w.Code)
	}
	if w := f.do("POST", "/research", `{"topic":"x","max_sources":50}`); w.Code != http.StatusBadRequest {
		t.Errorf("max_sources out of range: expected 400, got %d", w.Code)
	}
	if w := f.do("POST", "/research", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	f := newAPIFixture(t, nil)
	run := f.registry.Create("topic", "quick")

	w := f.do("GET", "/runs/"+run.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), run.ID) {
		t.Errorf("expected run payload, got %s", w.Body.String())
	}

	w = f.do("GET", "/runs/unknown-id", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown run, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not_found") {
		t.Errorf("expected not_found error, got %s", w.Body.String())
	}
}

func TestListRuns(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.registry.Create("first", "quick")
	f.registry.Create("second", "deep")

	w := f.do("GET", "/runs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []runs.Run
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 runs, got %d", len(list))
	}
}

func TestGetReport(t *testing.T) {
	f := newAPIFixture(t, nil)
	run := f.registry.Create("topic", "quick")
	if _, err := f.store.Write(run.ID, research.ReportFilename, "# Brief\n"); err != nil {
		t.Fatalf("write report: %v", err)
	}

	w := f.do("GET", "/runs/"+run.ID+"/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "# Brief\n" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, run.ID+"-report.md") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}

	w = f.do("GET", "/runs/"+run.ID+"/report?inline=true", "")
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("inline view must not force a download")
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/markdown") {
		t.Errorf("expected markdown content type, got %q", ct)
	}

	w = f.do("GET", "/runs/missing/report", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing report, got %d", w.Code)
	}
}

func TestResendNotify(t *testing.T) {
	f := newAPIFixture(t, nil)
	run := f.registry.Create("topic", "quick")

	// Unknown run.
	if w := f.do("POST", "/runs/nope/notify", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown run, got %d", w.Code)
	}

	// Known run, webhook unconfigured.
	w := f.do("POST", "/runs/"+run.ID+"/notify", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "webhook_not_configured") {
		t.Errorf("expected webhook_not_configured, got %s", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do("GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`"status":"ok"`, `"version":"0.1.0"`, `"model":"test-model"`, `"search_provider":"tavily"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in health payload, got %s", want, body)
		}
	}
}

func TestRoot(t *testing.T) {
	f := newAPIFixture(t, nil)
	w := f.do("GET", "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "message") {
		t.Errorf("expected hello message, got %s", w.Body.String())
	}
}
