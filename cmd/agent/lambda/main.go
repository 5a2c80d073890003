package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"

	"fitagent"
	"fitagent/agent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
	"fitagent/tools"
)

type Params struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
}

type Results struct {
	RunID  string         `json:"run_id"`
	Output map[string]any `json:"output"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var gatewayConfig fitagent.GatewayConfig
		if err := envdecode.Decode(&gatewayConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var agentConfig fitagent.AgentConfig
		if err := envdecode.Decode(&agentConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		runID := uuid.NewString()

		logger, flush, err := newOperationLogger(ctx, runID)
		if err != nil {
			slog.Error("SETUP: Failed to create operation logger", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := flush(ctx); err != nil {
				slog.Error("RESULT: Failed to flush operation log", "error", err)
			}
		}()

		gw := gateway.NewClient(gatewayConfig.BaseURL, &http.Client{Timeout: gatewayConfig.Timeout})
		engine := lifecycle.NewEngine(gw, nil)
		coordinator := bulk.New(agentConfig.BulkWorkers, agentConfig.BulkItemTimeout)
		facade := agent.NewWithRunID(gw, engine, coordinator, logger, runID)

		registry, err := tools.NewRegistry(facade)
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return Results{}, err
		}

		tool, err := registry.GetTool(params.Tool)
		if err != nil {
			return Results{}, fmt.Errorf("unknown tool %q: %w", params.Tool, err)
		}

		output, err := tool.Run(ctx, params.Input)
		if err != nil {
			slog.Error("RESULT: Error running tool", "tool", params.Tool, "error", err)
			return Results{}, err
		}

		return Results{RunID: runID, Output: output}, nil
	}

	lambda.Start(fn)
}

// newOperationLogger writes the run's operation log to S3 when a bucket
// is configured, and to stdout (CloudWatch) otherwise.
func newOperationLogger(ctx context.Context, runID string) (fitagent.OperationLogger, func(context.Context) error, error) {
	bucket := os.Getenv("OPERATION_LOG_S3_BUCKET")
	if bucket == "" {
		return fitagent.NewStdoutOperationLogger(), func(context.Context) error { return nil }, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	keyPrefix := os.Getenv("OPERATION_LOG_S3_PREFIX")
	logger := fitagent.NewS3OperationLogger(s3.NewFromConfig(awsCfg), bucket, keyPrefix, runID)
	return logger, logger.Flush, nil
}
