package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fitagent"
	"fitagent/agent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
)

var (
	flagUserID int64
	flagToken  string
	flagDate   string
)

var rootCmd = &cobra.Command{
	Use:   "fitctl",
	Short: "Workout and meal logging against the fitness backend",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagToken == "" {
			flagToken = os.Getenv("FITLOG_TOKEN")
		}
		if flagUserID == 0 {
			if v := os.Getenv("FITLOG_USER_ID"); v != "" {
				id, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid FITLOG_USER_ID: %w", err)
				}
				flagUserID = id
			}
		}
		if flagUserID <= 0 || flagToken == "" {
			return fmt.Errorf("caller identity is required: set --user and --token (or FITLOG_USER_ID and FITLOG_TOKEN)")
		}
		return nil
	},
}

func caller() gateway.Caller {
	return gateway.Caller{UserID: flagUserID, Token: flagToken}
}

func newFacade() (*agent.Facade, error) {
	var gatewayConfig fitagent.GatewayConfig
	if err := envdecode.Decode(&gatewayConfig); err != nil {
		return nil, fmt.Errorf("failed to decode gateway config: %w", err)
	}

	var agentConfig fitagent.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		return nil, fmt.Errorf("failed to decode agent config: %w", err)
	}

	gw := gateway.NewClient(gatewayConfig.BaseURL, &http.Client{Timeout: gatewayConfig.Timeout})
	engine := lifecycle.NewEngine(gw, nil)
	coordinator := bulk.New(agentConfig.BulkWorkers, agentConfig.BulkItemTimeout)
	return agent.New(gw, engine, coordinator, nil), nil
}

func main() {
	godotenv.Load() // nolint: errcheck

	rootCmd.PersistentFlags().Int64Var(&flagUserID, "user", 0, "User ID making the call")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token for the backend")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func today() string {
	return time.Now().Format(gateway.DateLayout)
}
