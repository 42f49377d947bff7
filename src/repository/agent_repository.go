package repository

import (
	"context"
	"strings"
	"unicode/utf8"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"errorcentral/src/database"
	"errorcentral/src/filter"
	"errorcentral/src/model"
)

const agentAddressMaxLen = 200

// AgentRepository handles persistence of reporting agents.
type AgentRepository struct {
	db     *gorm.DB
	reader *gorm.DB
}

// NewAgentRepository creates a repository writing to MainDB and reading from the read-only connection.
func NewAgentRepository() *AgentRepository {
	return &AgentRepository{
		db:     database.MainDB,
		reader: database.Reader(),
	}
}

// WithDB allows overriding the underlying *gorm.DB instance for reads and writes.
func (r *AgentRepository) WithDB(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db, reader: db}
}

// Create validates payload and persists a new agent.
func (r *AgentRepository) Create(
	ctx context.Context,
	payload model.AgentPayload,
) (*model.Agent, error) {

	verr := model.NewValidationError()
	var address string
	switch {
	case payload.Address == nil:
		verr.Add("address", model.MsgRequired)
	case strings.TrimSpace(*payload.Address) == "":
		verr.Add("address", model.MsgBlank)
	default:
		address = strings.TrimSpace(*payload.Address)
		if utf8.RuneCountInString(address) > agentAddressMaxLen {
			verr.Add("address", "Ensure this field has no more than 200 characters.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	agent := &model.Agent{Address: address}

	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AgentRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create agent")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "AgentRepository",
		"op":       "Create",
		"agent_id": agent.ID,
	}).Info("Agent created successfully")

	return agent, nil
}

// List returns one page of agents ordered by id.
func (r *AgentRepository) List(
	ctx context.Context,
	page filter.Pagination,
) (model.Page[model.Agent], error) {

	base := r.reader.WithContext(ctx).Model(&model.Agent{}).Session(&gorm.Session{})

	var out model.Page[model.Agent]
	if err := base.Count(&out.Count).Error; err != nil {
		return out, err
	}

	page, err := page.Resolve(out.Count)
	if err != nil {
		return out, err
	}

	out.Results = []model.Agent{}
	if err := page.Apply(base.Order("agents.id")).Find(&out.Results).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AgentRepository",
			"op":   "List",
		}).WithError(err).Error("Failed to list agents")

		return out, err
	}

	return out, nil
}

// Delete removes an agent; its error logs are removed by the store (ON DELETE CASCADE).
func (r *AgentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Agent{}, id)
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AgentRepository",
			"op":   "Delete",
			"id":   id,
		}).WithError(res.Error).Error("Failed to delete agent")

		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.WithFields(map[string]interface{}{
		"repo": "AgentRepository",
		"op":   "Delete",
		"id":   id,
	}).Info("Agent deleted")

	return nil
}
