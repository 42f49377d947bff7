package reporter

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseURL      string        `envconfig:"CENTRAL_ERROR_URL" default:"http://localhost:9898"`
	Token        string        `envconfig:"CENTRAL_ERROR_TOKEN"`
	Timeout      time.Duration `envconfig:"CENTRAL_ERROR_TIMEOUT" default:"15s"`
	RetryCount   int           `envconfig:"CENTRAL_ERROR_RETRIES" default:"2"`
	RetryWait    time.Duration `envconfig:"CENTRAL_ERROR_RETRY_WAIT" default:"500ms"`
	RetryMaxWait time.Duration `envconfig:"CENTRAL_ERROR_RETRY_MAX_WAIT" default:"5s"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
