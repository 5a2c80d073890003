package fitagent

import "time"

// GatewayConfig locates the fitness backend. The bearer credential is NOT
// configuration: it arrives with every call, per caller.
type GatewayConfig struct {
	BaseURL string        `env:"FITLOG_API_BASE,required"`
	Timeout time.Duration `env:"FITLOG_API_TIMEOUT,default=10s"`
}

type AgentConfig struct {
	BulkWorkers     int           `env:"BULK_WORKERS,default=5"`
	BulkItemTimeout time.Duration `env:"BULK_ITEM_TIMEOUT,default=10s"`
	SlackWebhookURL string        `env:"SLACK_WEBHOOK_URL,default="`
	SlackChannel    string        `env:"SLACK_CHANNEL,default=#fitness-log"`
	OperationLogDir string        `env:"OPERATION_LOG_DIR,default=./logs"`
}
