package users

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config supplies credentials when the command line leaves them out.
type Config struct {
	Username string `envconfig:"ADMIN_USERNAME"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
