// Package filter holds the query contract shared by every list endpoint:
// the error log predicate set, ordering and pagination.
package filter

import (
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"errorcentral/src/database"
	"errorcentral/src/model"
)

// Columns maps each filter key to the column it is evaluated against.
// Column names are table qualified so the same filter can run on joined queries.
type Columns struct {
	Level       string
	Agent       string
	Environment string
	Description string
	Exception   string
	User        string
}

// ErrorLogColumns targets the error_logs table.
var ErrorLogColumns = ColumnsFor("error_logs")

// ColumnsFor returns the error log field set qualified with table (or alias).
func ColumnsFor(table string) Columns {
	q := func(col string) string { return table + "." + col }
	return Columns{
		Level:       q("level"),
		Agent:       q("agent_id"),
		Environment: q("environment"),
		Description: q("description"),
		Exception:   q("exception_id"),
		User:        q("user_id"),
	}
}

// ErrorLogFilter is the predicate set over error log rows.
// Nil fields are not applied; set fields are AND-combined.
type ErrorLogFilter struct {
	Level       *string
	Agent       *uint
	Environment *string
	Description *string
	Exception   *uint
	User        *uint
}

// ParseErrorLogFilter reads the filter keys from query values.
// Unknown keys and empty values are ignored. Id keys must be positive integers.
func ParseErrorLogFilter(values url.Values) (ErrorLogFilter, error) {
	var f ErrorLogFilter
	verr := model.NewValidationError()

	f.Level = stringParam(values, "level")
	f.Environment = stringParam(values, "environment")
	f.Description = stringParam(values, "description")
	f.Agent = idParam(values, "agent", verr)
	f.Exception = idParam(values, "exception", verr)
	f.User = idParam(values, "user", verr)

	if err := verr.OrNil(); err != nil {
		return ErrorLogFilter{}, err
	}
	return f, nil
}

// IsEmpty reports whether no predicate is set.
func (f ErrorLogFilter) IsEmpty() bool {
	return f.Level == nil && f.Agent == nil && f.Environment == nil &&
		f.Description == nil && f.Exception == nil && f.User == nil
}

// Apply adds the set predicates to db using cols.
func (f ErrorLogFilter) Apply(db *gorm.DB, cols Columns) *gorm.DB {
	if f.Level != nil {
		db = db.Where(cols.Level+" = ?", *f.Level)
	}
	if f.Agent != nil {
		db = db.Where(cols.Agent+" = ?", *f.Agent)
	}
	if f.Environment != nil {
		db = db.Where(cols.Environment+" = ?", *f.Environment)
	}
	if f.Description != nil {
		db = db.Where(lowerFunc(db)+"("+cols.Description+`) LIKE ? ESCAPE '\'`, containsPattern(*f.Description))
	}
	if f.Exception != nil {
		db = db.Where(cols.Exception+" = ?", *f.Exception)
	}
	if f.User != nil {
		db = db.Where(cols.User+" = ?", *f.User)
	}
	return db
}

func stringParam(values url.Values, key string) *string {
	v := values.Get(key)
	if v == "" {
		return nil
	}
	return &v
}

func idParam(values url.Values, key string, verr *model.ValidationError) *uint {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		verr.Add(key, model.MsgInvalidNumber)
		return nil
	}
	v := uint(id)
	return &v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// lowerFunc names the SQL function folding case the same way strings.ToLower does.
func lowerFunc(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == database.DriverSQLite {
		return database.SQLiteLowerFunc
	}
	return "LOWER"
}

// containsPattern builds a case-insensitive LIKE pattern matching value anywhere.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}

// Search narrows db to rows whose column contains every whitespace separated word
// of term, case-insensitively. An empty term leaves db unchanged.
func Search(db *gorm.DB, column, term string) *gorm.DB {
	for _, word := range strings.Fields(term) {
		db = db.Where(lowerFunc(db)+"("+column+`) LIKE ? ESCAPE '\'`, containsPattern(word))
	}
	return db
}
