package filter

import (
	"errors"
	"net/url"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"errorcentral/src/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}

func TestParseErrorLogFilter(t *testing.T) {
	values := url.Values{
		"level":       {"ERROR"},
		"agent":       {"2"},
		"environment": {"PRODUCTION"},
		"description": {"save()"},
		"exception":   {"1"},
		"user":        {"7"},
		"unknown":     {"whatever"},
	}

	f, err := ParseErrorLogFilter(values)
	require.NoError(t, err)

	assert.Equal(t, "ERROR", *f.Level)
	assert.Equal(t, uint(2), *f.Agent)
	assert.Equal(t, "PRODUCTION", *f.Environment)
	assert.Equal(t, "save()", *f.Description)
	assert.Equal(t, uint(1), *f.Exception)
	assert.Equal(t, uint(7), *f.User)
}

func TestParseErrorLogFilter_EmptyValuesAreIgnored(t *testing.T) {
	f, err := ParseErrorLogFilter(url.Values{"level": {""}, "agent": {""}})
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
}

func TestParseErrorLogFilter_InvalidIDs(t *testing.T) {
	_, err := ParseErrorLogFilter(url.Values{"agent": {"abc"}, "user": {"0"}})

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{model.MsgInvalidNumber}, verr.Fields["agent"])
	assert.Equal(t, []string{model.MsgInvalidNumber}, verr.Fields["user"])
	assert.NotContains(t, verr.Fields, "exception")
}

func TestErrorLogFilterApply(t *testing.T) {
	db, mock := newMockDB(t)

	t.Run("no predicates", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "error_logs"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		var rows []model.ErrorLog
		err := ErrorLogFilter{}.Apply(db.Model(&model.ErrorLog{}), ErrorLogColumns).Find(&rows).Error
		require.NoError(t, err)
	})

	t.Run("every predicate AND-combined", func(t *testing.T) {
		f := ErrorLogFilter{
			Level:       ptrString("ERROR"),
			Agent:       ptrUint(2),
			Environment: ptrString("PRODUCTION"),
			Description: ptrString("Update_%"),
			Exception:   ptrUint(1),
			User:        ptrUint(3),
		}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "error_logs" WHERE error_logs.level = $1 AND error_logs.agent_id = $2 AND error_logs.environment = $3 AND LOWER(error_logs.description) LIKE $4 ESCAPE '\' AND error_logs.exception_id = $5 AND error_logs.user_id = $6`)).
			WithArgs("ERROR", uint(2), "PRODUCTION", `%update\_\%%`, uint(1), uint(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		var rows []model.ErrorLog
		err := f.Apply(db.Model(&model.ErrorLog{}), ErrorLogColumns).Find(&rows).Error
		require.NoError(t, err)
	})

	t.Run("aliased columns", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "error_logs" WHERE l.exception_id = $1`)).
			WithArgs(uint(4)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		var rows []model.ErrorLog
		err := ErrorLogFilter{Exception: ptrUint(4)}.Apply(db.Model(&model.ErrorLog{}), ColumnsFor("l")).Find(&rows).Error
		require.NoError(t, err)
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestSearch(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "app_exceptions" WHERE LOWER(app_exceptions.title) LIKE $1 ESCAPE '\' AND LOWER(app_exceptions.title) LIKE $2 ESCAPE '\'`)).
		WithArgs("%null%", "%pointer%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	var rows []model.AppException
	err := Search(db.Model(&model.AppException{}), "app_exceptions.title", "  Null   POINTER ").Find(&rows).Error
	require.NoError(t, err)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func ptrString(val string) *string {
	return &val
}

func ptrUint(val uint) *uint {
	return &val
}
