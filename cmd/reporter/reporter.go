package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"errorcentral/src/model"
	api "errorcentral/src/reporter"
)

type apiClient interface {
	RegisterAgent(ctx context.Context, address string) (*model.Agent, error)
	Report(ctx context.Context, ev api.Event) (*model.ErrorLog, error)
}

// Request is one report command invocation.
type Request struct {
	AgentID      uint
	AgentAddress string
	Title        string
	Description  string
	Level        string
	Environment  string
}

// Reporter backs the report command.
type Reporter struct {
	Log    *logrus.Entry
	Client apiClient
	Out    io.Writer
}

// Run validates req locally, registers the agent when only an address is given and
// sends the event.
func (r *Reporter) Run(ctx context.Context, req Request) error {
	if req.Title == "" || req.Description == "" {
		return errors.New("exception title and description are required")
	}
	level, err := model.ParseLevel(req.Level)
	if err != nil {
		return err
	}
	env, err := model.ParseEnvironment(req.Environment)
	if err != nil {
		return err
	}

	agentID := req.AgentID
	if agentID == 0 {
		if req.AgentAddress == "" {
			return errors.New("an agent id or agent address is required")
		}
		agent, err := r.Client.RegisterAgent(ctx, req.AgentAddress)
		if err != nil {
			return fmt.Errorf("register agent: %w", err)
		}
		r.Log.WithField("agent_id", agent.ID).Info("agent registered")
		agentID = agent.ID
	}

	entry, err := r.Client.Report(ctx, api.Event{
		AgentID:     agentID,
		Title:       req.Title,
		Description: req.Description,
		Level:       level,
		Environment: env,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(r.Out, "error log %d stored (agent %d)\n", entry.ID, agentID)
	return err
}
