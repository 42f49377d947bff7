package main

import (
	"fmt"
	"os"
	"time"

	logger "github.com/sirupsen/logrus"

	"errorcentral/src/auth"
	"errorcentral/src/database"
	"errorcentral/src/logging"
	"errorcentral/src/security"
	"errorcentral/src/server"
)

var APP_NAME = os.Getenv("APP_NAME")

func main() {
	dbConfig := database.GetConfig()
	logging.Setup(dbConfig.LogLevel, dbConfig.LogFormat)
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	tokens, err := auth.NewManager(security.GetConfig())
	if err != nil {
		logger.WithError(err).Fatal("Invalid token configuration")
	}

	cfg := server.GetConfig()
	server.StartServer(cfg, server.NewRouter(server.DefaultDependencies(tokens, cfg.PageSize)))
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
