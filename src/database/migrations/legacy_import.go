package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"errorcentral/src/model"
)

// Tables of the previous deployment. They are read, never modified.
const (
	legacyUserTable      = "auth_user"
	legacyAgentTable     = "api_rest_agent"
	legacyExceptionTable = "api_rest_appexception"
	legacyErrorLogTable  = "api_rest_errorlog"

	legacyBatchSize = 500
)

type legacyUser struct {
	ID       uint
	Username string
}

type legacyAgent struct {
	ID      uint
	Address string
}

type legacyException struct {
	ID    uint
	Title string
}

type legacyErrorLog struct {
	ID          uint
	Description string
	Date        time.Time
	Level       string
	Environment string
	UserID      uint
	ExceptionID uint
	AgentID     uint
}

// importLegacyTables copies users, agents, exceptions and error logs from the
// previous deployment's tables when they exist in the same database. Identifiers are
// remapped; imported users get a random password and must be reset with createuser.
func importLegacyTables(db *gorm.DB) error {
	if !db.Migrator().HasTable(legacyErrorLogTable) {
		return nil
	}

	users, err := importLegacyUsers(db)
	if err != nil {
		return fmt.Errorf("import users: %w", err)
	}

	agents, err := importLegacyAgents(db)
	if err != nil {
		return fmt.Errorf("import agents: %w", err)
	}

	exceptions, err := importLegacyExceptions(db)
	if err != nil {
		return fmt.Errorf("import exceptions: %w", err)
	}

	var batch []legacyErrorLog
	res := db.Table(legacyErrorLogTable).FindInBatches(&batch, legacyBatchSize, func(tx *gorm.DB, _ int) error {
		logs := make([]model.ErrorLog, 0, len(batch))
		for _, row := range batch {
			userID, okUser := users[row.UserID]
			agentID, okAgent := agents[row.AgentID]
			exceptionID, okException := exceptions[row.ExceptionID]
			if !okUser || !okAgent || !okException {
				return fmt.Errorf("legacy error log %d references a missing parent", row.ID)
			}

			logs = append(logs, model.ErrorLog{
				Description: row.Description,
				Date:        row.Date,
				Level:       model.Level(row.Level),
				Environment: model.Environment(row.Environment),
				UserID:      userID,
				AgentID:     agentID,
				ExceptionID: exceptionID,
			})
		}
		if len(logs) == 0 {
			return nil
		}
		return db.Create(&logs).Error
	})
	if res.Error != nil {
		return fmt.Errorf("import error logs: %w", res.Error)
	}

	return nil
}

func importLegacyUsers(db *gorm.DB) (map[uint]uint, error) {
	ids := make(map[uint]uint)
	if !db.Migrator().HasTable(legacyUserTable) {
		return ids, nil
	}

	var rows []legacyUser
	if err := db.Table(legacyUserTable).Select("id, username").Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		userID, err := ensureUserForLegacyName(db, row.Username)
		if err != nil {
			return nil, fmt.Errorf("ensure user %s: %w", row.Username, err)
		}
		ids[row.ID] = userID
	}

	return ids, nil
}

func ensureUserForLegacyName(db *gorm.DB, username string) (uint, error) {
	var user model.User
	if err := db.Where("user_name = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			return 0, fmt.Errorf("hash placeholder password: %w", err)
		}

		user = model.User{
			Username: username,
			Password: string(hashedPassword),
		}

		if err := db.Create(&user).Error; err != nil {
			return 0, err
		}
	}

	return user.ID, nil
}

func importLegacyAgents(db *gorm.DB) (map[uint]uint, error) {
	ids := make(map[uint]uint)
	if !db.Migrator().HasTable(legacyAgentTable) {
		return ids, nil
	}

	var rows []legacyAgent
	if err := db.Table(legacyAgentTable).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		agent := model.Agent{Address: row.Address}
		if err := db.Create(&agent).Error; err != nil {
			return nil, err
		}
		ids[row.ID] = agent.ID
	}

	return ids, nil
}

func importLegacyExceptions(db *gorm.DB) (map[uint]uint, error) {
	ids := make(map[uint]uint)
	if !db.Migrator().HasTable(legacyExceptionTable) {
		return ids, nil
	}

	var rows []legacyException
	if err := db.Table(legacyExceptionTable).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		exc := model.AppException{Title: row.Title}
		if err := db.Where(model.AppException{Title: row.Title}).FirstOrCreate(&exc).Error; err != nil {
			return nil, err
		}
		ids[row.ID] = exc.ID
	}

	return ids, nil
}
