package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"errorcentral/src/database"
	"errorcentral/src/model"
)

// newTestDB opens a private in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Open(database.DriverSQLite, dsn, database.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	user       *model.User
	agents     []model.Agent
	exceptions []model.AppException
	logs       []model.ErrorLog
}

// seed stores the two reference logs:
//
//	1: "in method save() at line 5",   ERROR,   DEVELOPMENT, agent 1, NullPointerException
//	2: "in method update() at line 3", WARNING, PRODUCTION,  agent 2, BadRequestException
func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	f := fixture{
		user: &model.User{Username: "TestUser", Password: "x"},
		agents: []model.Agent{
			{Address: "http://127.0.0.1:8000"},
			{Address: "http://www.prod.com.br"},
		},
		exceptions: []model.AppException{
			{Title: "NullPointerException"},
			{Title: "BadRequestException"},
		},
	}
	require.NoError(t, db.Create(f.user).Error)
	require.NoError(t, db.Create(&f.agents).Error)
	require.NoError(t, db.Create(&f.exceptions).Error)

	repo := (&ErrorLogRepository{}).WithDB(db)
	first := createLog(t, repo, f.user.ID, "in method save() at line 5", "ERROR", "DEVELOPMENT", f.agents[0].ID, f.exceptions[0].ID)
	second := createLog(t, repo, f.user.ID, "in method update() at line 3", "WARNING", "PRODUCTION", f.agents[1].ID, f.exceptions[1].ID)
	f.logs = []model.ErrorLog{*first, *second}

	return f
}

func createLog(t *testing.T, repo *ErrorLogRepository, userID uint, description, level, env string, agentID, exceptionID uint) *model.ErrorLog {
	t.Helper()

	entry, err := repo.Create(context.Background(), userID, payload(description, level, env, agentID, exceptionID))
	require.NoError(t, err)
	return entry
}

func payload(description, level, env string, agentID, exceptionID uint) model.ErrorLogPayload {
	return model.ErrorLogPayload{
		Description: &description,
		Level:       &level,
		Environment: &env,
		Agent:       pkJSON(agentID),
		Exception:   pkJSON(exceptionID),
	}
}

func pkJSON(id uint) json.RawMessage {
	return json.RawMessage(strconv.FormatUint(uint64(id), 10))
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func ptrString(val string) *string {
	return &val
}

func ptrUint(val uint) *uint {
	return &val
}
