package migrations_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"errorcentral/src/database"
	"errorcentral/src/database/migrations"
	"errorcentral/src/model"
)

func openSQLite(t *testing.T, params string) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared"+params, database.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func count(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestRunOnce(t *testing.T) {
	db := openSQLite(t, "")

	calls := 0
	fn := func(*gorm.DB) error {
		calls++
		return nil
	}

	require.NoError(t, migrations.RunOnce(db, "test_once", fn))
	require.NoError(t, migrations.RunOnce(db, "test_once", fn))
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), count(t, db, &migrations.DataMigration{}))
}

func TestRunOnceFailureIsNotRecorded(t *testing.T) {
	db := openSQLite(t, "")

	err := migrations.RunOnce(db, "test_failing", func(*gorm.DB) error { return errors.New("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test_failing")
	assert.Equal(t, int64(0), count(t, db, &migrations.DataMigration{}))

	require.Error(t, migrations.RunOnce(db, "", func(*gorm.DB) error { return nil }))
	require.Error(t, migrations.RunOnce(db, "nil_fn", nil))
}

func TestPrepareStoreRequiresForeignKeys(t *testing.T) {
	assert.NoError(t, migrations.PrepareStore(openSQLite(t, "")))

	err := migrations.PrepareStore(openSQLite(t, "&_foreign_keys=off"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key")
}

func TestMigrateImportsLegacyTables(t *testing.T) {
	db := openSQLite(t, "")

	stmts := []string{
		`CREATE TABLE auth_user (id integer PRIMARY KEY, username varchar(150) NOT NULL)`,
		`CREATE TABLE api_rest_agent (id integer PRIMARY KEY, address varchar(200) NOT NULL)`,
		`CREATE TABLE api_rest_appexception (id integer PRIMARY KEY, title varchar(150) NOT NULL)`,
		`CREATE TABLE api_rest_errorlog (id integer PRIMARY KEY, description text NOT NULL, date datetime NOT NULL,
			level varchar(30) NOT NULL, environment varchar(30) NOT NULL,
			user_id integer NOT NULL, exception_id integer NOT NULL, agent_id integer NOT NULL)`,
		`INSERT INTO auth_user (id, username) VALUES (7, 'TestUser')`,
		`INSERT INTO api_rest_agent (id, address) VALUES (3, 'http://127.0.0.1:8000'), (4, 'http://www.prod.com.br')`,
		`INSERT INTO api_rest_appexception (id, title) VALUES (5, 'NullPointerException')`,
		`INSERT INTO api_rest_errorlog VALUES
			(1, 'in method save() at line 5', '2020-05-01 10:00:00', 'error', 'development', 7, 5, 3),
			(2, 'in method update() at line 3', '2020-05-02 11:30:00', 'WARNING', 'production', 7, 5, 4)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	require.NoError(t, database.Migrate(db))

	assert.Equal(t, int64(1), count(t, db, &model.User{}))
	assert.Equal(t, int64(2), count(t, db, &model.Agent{}))
	assert.Equal(t, int64(1), count(t, db, &model.AppException{}))

	var logs []model.ErrorLog
	require.NoError(t, db.Preload("Agent").Preload("Exception").Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, model.LevelError, logs[0].Level)
	assert.Equal(t, model.EnvironmentDevelopment, logs[0].Environment)
	assert.Equal(t, model.EnvironmentProduction, logs[1].Environment)
	assert.Equal(t, "http://www.prod.com.br", logs[1].Agent.Address)
	assert.Equal(t, "NullPointerException", logs[1].Exception.Title)
	assert.Equal(t, 2020, logs[0].Date.Year())

	// A second run finds both migrations recorded.
	require.NoError(t, database.Migrate(db))
	assert.Equal(t, int64(2), count(t, db, &model.ErrorLog{}))
	assert.Equal(t, int64(2), count(t, db, &migrations.DataMigration{}))
}

func TestMigrateWithoutLegacyTables(t *testing.T) {
	db := openSQLite(t, "")

	require.NoError(t, database.Migrate(db))
	assert.Equal(t, int64(0), count(t, db, &model.ErrorLog{}))
	assert.Equal(t, int64(2), count(t, db, &migrations.DataMigration{}))
}
