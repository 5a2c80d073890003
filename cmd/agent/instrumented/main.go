package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fitagent"
	"fitagent/agent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
	"fitagent/slack"
	"fitagent/tools"
)

func main() {
	ctx := context.Background()

	var gatewayConfig fitagent.GatewayConfig
	if err := envdecode.Decode(&gatewayConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var agentConfig fitagent.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var httpClient fitagent.HTTPClient = &http.Client{Timeout: gatewayConfig.Timeout}
	gw := gateway.NewClient(gatewayConfig.BaseURL, httpClient)
	engine := lifecycle.NewEngine(gw, nil)
	coordinator := bulk.New(agentConfig.BulkWorkers, agentConfig.BulkItemTimeout)

	runID := uuid.NewString()
	logger, cleanup, err := newOperationLogger(agentConfig.OperationLogDir, runID)
	if err != nil {
		slog.Error("SETUP: Failed to create operation logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush operation log", "error", err)
		}
	}()

	facade := agent.NewWithRunID(gw, engine, coordinator, logger, runID)

	registry, err := tools.NewRegistry(facade)
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		return
	}

	toolName := argOr(1, "session_log_get")
	var input map[string]any
	if err := json.Unmarshal([]byte(argOr(2, "{}")), &input); err != nil {
		slog.Error("SETUP: Failed to parse tool input", "error", err)
		return
	}

	tracerProvider, meterProvider, otelShutdown, err := fitagent.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(fitagent.TracerNameTools)
	meter := meterProvider.Meter(fitagent.TracerNameTools)
	registry = tools.InstrumentRegistry(registry, tracer, meter)

	ctx, span := tracer.Start(ctx, fitagent.TracerNameAgent, trace.WithAttributes(
		attribute.String("tool.name", toolName),
		attribute.String("run.id", facade.RunID()),
	))
	defer span.End()

	tool, err := registry.GetTool(toolName)
	if err != nil {
		slog.Error("FAILURE: Unknown tool", "tool", toolName, "error", err)
		return
	}

	output, err := tool.Run(ctx, input)
	if err != nil {
		slog.Error("FAILURE: Error running tool", "tool", toolName, "error", err)
		return
	}
	fitagent.Dump(output)

	webhookURL := agentConfig.SlackWebhookURL
	if webhookURL == "" {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(bytes.Buffer)
			body.ReadFrom(r.Body) // nolint: errcheck
			slog.Info("Received request",
				"method", r.Method,
				"path", r.URL.Path,
				"header", r.Header,
				"body", body.String(),
			)
			w.WriteHeader(http.StatusOK)
		}))
		defer testServer.Close()
		webhookURL = testServer.URL
	}

	var notifier fitagent.Notifier = slack.NewClient(webhookURL, http.DefaultClient)
	if result, ok := asBulkResult(output); ok {
		if err := notifier.PostBulkSummary(ctx, agentConfig.SlackChannel, toolName, result); err != nil {
			slog.Error("Failed to post bulk summary to Slack", "error", err)
		}
		return
	}

	summary, err := json.Marshal(output)
	if err != nil {
		slog.Error("Failed to marshal tool output", "error", err)
		return
	}
	if err := notifier.PostMessage(ctx, agentConfig.SlackChannel, string(summary)); err != nil {
		slog.Error("Failed to post result to Slack", "error", err)
	}
}

// asBulkResult recognizes tool outputs that carry per-item outcomes so
// they can be posted as an itemized "N of M succeeded" summary.
func asBulkResult(output map[string]any) (bulk.Result, bool) {
	if _, ok := output["succeeded"]; !ok {
		return bulk.Result{}, false
	}
	if _, ok := output["failed"]; !ok {
		return bulk.Result{}, false
	}
	raw, err := json.Marshal(output)
	if err != nil {
		return bulk.Result{}, false
	}
	var result bulk.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return bulk.Result{}, false
	}
	return result, true
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newOperationLogger(dir, runID string) (fitagent.OperationLogger, func() error, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := filepath.Join(dir, filepath.Base(fitagent.NewOperationLogFilePath(runID)))
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := fitagent.NewFileOperationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
