package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"errorcentral/cmd/reporter"
	"errorcentral/cmd/users"
	"errorcentral/src/auth"
	"errorcentral/src/database"
	"errorcentral/src/logging"
	"errorcentral/src/repository"
	api "errorcentral/src/reporter"
	"errorcentral/src/security"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "errorcentral"
	app.Usage = "The error central command line interface"
	app.Version = Version
	app.Before = func(_ *cli.Context) error {
		cfg := database.GetConfig()
		logging.Setup(cfg.LogLevel, cfg.LogFormat)
		return nil
	}

	app.Commands = []cli.Command{
		migrateCMD,
		createUserCMD,
		tokenCMD,
		reportCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var credentialFlags = []cli.Flag{
	cli.StringFlag{Name: "username, u", Usage: "user name (default $ADMIN_USERNAME)"},
	cli.StringFlag{Name: "password, p", Usage: "password (default $ADMIN_PASSWORD)"},
}

var (
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "apply schema and data migrations",
		Action:      migrateAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Create or update the schema and run pending data migrations`,
	}
	createUserCMD = cli.Command{
		Name:        "createuser",
		Usage:       "create a user or reset its password",
		Action:      createUserAction,
		Flags:       credentialFlags,
		Description: `Create an API user`,
	}
	tokenCMD = cli.Command{
		Name:        "token",
		Usage:       "issue an access token",
		Action:      tokenAction,
		Flags:       credentialFlags,
		Description: `Print a bearer token for an existing user`,
	}
	reportCMD = cli.Command{
		Name:      "report",
		Usage:     "report an error event to a running server",
		Action:    reportAction,
		ArgsUsage: "<exception title> <description>",
		Flags: []cli.Flag{
			cli.UintFlag{Name: "agent", Usage: "id of a registered agent (default $REPORT_AGENT_ID)"},
			cli.StringFlag{Name: "address", Usage: "register a new agent with this address (default $REPORT_AGENT_ADDRESS)"},
			cli.StringFlag{Name: "level", Usage: "ERROR, WARNING or DEBUG (default $REPORT_LEVEL)"},
			cli.StringFlag{Name: "environment", Usage: "PRODUCTION, HOMOLOGATION or DEVELOPMENT (default $REPORT_ENVIRONMENT)"},
		},
		Description: `Send one error event through the HTTP API (CENTRAL_ERROR_URL, CENTRAL_ERROR_TOKEN)`,
	}
)

func migrateAction(_ *cli.Context) error {
	logrus.Info("Starting migrate CMD")

	// InitMainDB migrates on connect.
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Migration failed")
		return err
	}

	return nil
}

func createUserAction(c *cli.Context) error {
	logrus.Info("Starting createuser CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	username, password := credentials(c)
	u := &users.Users{
		Log:  logrus.WithField("cmd", "createuser"),
		Repo: repository.NewUserRepository(),
		Out:  os.Stdout,
	}

	return u.CreateUser(context.Background(), username, password)
}

func tokenAction(c *cli.Context) error {
	logrus.Info("Starting token CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	tokens, err := auth.NewManager(security.GetConfig())
	if err != nil {
		return err
	}

	username, password := credentials(c)
	u := &users.Users{
		Log:    logrus.WithField("cmd", "token"),
		Repo:   repository.NewUserRepository(),
		Tokens: tokens,
		Out:    os.Stdout,
	}

	return u.IssueToken(context.Background(), username, password)
}

func reportAction(c *cli.Context) error {
	logrus.Info("Starting report CMD")

	if c.NArg() != 2 {
		return cli.ShowCommandHelp(c, "report")
	}

	cfg := reporter.GetConfig()
	req := reporter.Request{
		AgentID:      cfg.AgentID,
		AgentAddress: cfg.AgentAddress,
		Title:        c.Args().Get(0),
		Description:  c.Args().Get(1),
		Level:        cfg.Level,
		Environment:  cfg.Environment,
	}
	if v := c.Uint("agent"); v != 0 {
		req.AgentID = v
	}
	if v := c.String("address"); v != "" {
		req.AgentAddress = v
	}
	if v := c.String("level"); v != "" {
		req.Level = v
	}
	if v := c.String("environment"); v != "" {
		req.Environment = v
	}

	r := &reporter.Reporter{
		Log:    logrus.WithField("cmd", "report"),
		Client: api.NewClient(*api.GetConfig()),
		Out:    os.Stdout,
	}

	return r.Run(context.Background(), req)
}

func credentials(c *cli.Context) (string, string) {
	cfg := users.GetConfig()
	username, password := c.String("username"), c.String("password")
	if username == "" {
		username = cfg.Username
	}
	if password == "" {
		password = cfg.Password
	}
	return username, password
}
