package reporter

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the defaults of the report command.
type Config struct {
	AgentID      uint   `envconfig:"REPORT_AGENT_ID"`
	AgentAddress string `envconfig:"REPORT_AGENT_ADDRESS"`
	Level        string `envconfig:"REPORT_LEVEL" default:"ERROR"`
	Environment  string `envconfig:"REPORT_ENVIRONMENT" default:"PRODUCTION"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
