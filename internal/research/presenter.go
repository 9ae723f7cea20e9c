package research

import (
	"context"
	"fmt"
	"time"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/events"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
)

// ReportFilename is the artifact each run publishes.
const ReportFilename = "report.md"

// NotifyPayload is the webhook body sent after a report is published.
type NotifyPayload struct {
	RunID          string   `json:"run_id"`
	Topic          string   `json:"topic"`
	Depth          string   `json:"depth"`
	Plan           []string `json:"plan"`
	Sources        []string `json:"sources"`
	ReportMD       string   `json:"report_md"`
	Critique       string   `json:"critique,omitempty"`
	ArtifactPath   string   `json:"artifact_path"`
	Model          string   `json:"model"`
	SearchProvider string   `json:"search_provider"`
	TS             string   `json:"ts"`
}

// Presenter writes the report artifact and then notifies the outbound
// webhook as a sub-step with its own events. Notification failures are
// reported but never fatal: the report was already published.
func (s *Stages) Presenter() Stage {
	return Stage{
		Name:  "present",
		Agent: "presenter",
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			md := st.ReportMD
			if md == "" {
				md = "# Empty Report\n"
			}
			path, err := s.Artifacts.Write(st.RunID, ReportFilename, md)
			if err != nil {
				return st, nil, fmt.Errorf("write report artifact: %w", err)
			}
			if st.Artifacts == nil {
				st.Artifacts = make(map[string]string, 1)
			}
			st.Artifacts["report_md"] = path

			// The stage's own completed event fires after notification, so
			// publish the artifact milestone here and run notify as an
			// explicit sub-step.
			s.notify(ctx, st, path)
			return st, map[string]any{"path": path}, nil
		},
	}
}

// notify posts the run's results to the configured webhook, emitting notify
// started/completed/error events around the attempt.
func (s *Stages) notify(ctx context.Context, st State, artifactPath string) {
	payload := s.BuildNotifyPayload(st, artifactPath)

	s.Bus.Publish(events.New(st.RunID, "notify", events.StatusStarted,
		events.WithAgent("n8n"), events.WithMessage("Sending to webhook")))

	status, text, ok := s.Webhook.Notify(ctx, payload)
	switch {
	case !ok:
		s.Bus.Publish(events.New(st.RunID, "notify", events.StatusCompleted,
			events.WithAgent("n8n"),
			events.WithMessage("webhook URL not set"),
			events.WithData(map[string]any{"skipped": true})))

	case status == 0:
		// Connection-level failure.
		s.log.Warn("webhook connection failed", logger.Fields("error", text))
		s.Bus.Publish(events.New(st.RunID, "notify", events.StatusError,
			events.WithAgent("n8n"),
			events.WithData(map[string]any{"status": 0, "error": text})))

	case status >= 200 && status < 300:
		s.Bus.Publish(events.New(st.RunID, "notify", events.StatusCompleted,
			events.WithAgent("n8n"),
			events.WithData(map[string]any{"status": status})))

	default:
		s.Bus.Publish(events.New(st.RunID, "notify", events.StatusError,
			events.WithAgent("n8n"),
			events.WithData(map[string]any{"status": status, "response": clip(text, 240)})))
	}
}

// BuildNotifyPayload assembles the webhook body for a run. Exposed so the
// HTTP resend endpoint can reuse it.
func (s *Stages) BuildNotifyPayload(st State, artifactPath string) NotifyPayload {
	sources := make([]string, 0, len(st.Docs))
	for _, d := range st.Docs {
		if d.URL != "" {
			sources = append(sources, d.URL)
		}
	}
	plan := st.Plan
	if plan == nil {
		plan = []string{}
	}
	return NotifyPayload{
		RunID:          st.RunID,
		Topic:          st.Topic,
		Depth:          st.Depth,
		Plan:           plan,
		Sources:        sources,
		ReportMD:       st.ReportMD,
		Critique:       st.Critique,
		ArtifactPath:   artifactPath,
		Model:          s.Model,
		SearchProvider: s.ChainName,
		TS:             time.Now().UTC().Format(time.RFC3339),
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
