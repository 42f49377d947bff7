package repository

import (
	"context"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"errorcentral/src/database"
	"errorcentral/src/filter"
	"errorcentral/src/model"
)

// ErrorLogOrderingFields are the orderings accepted by the error log listing.
var ErrorLogOrderingFields = map[string]string{
	"level":            "error_logs.level",
	"date":             "error_logs.date",
	"environment":      "error_logs.environment",
	"exception__title": "app_exceptions.title",
}

// ErrorLogRepository is the listing and write side of error logs.
type ErrorLogRepository struct {
	db     *gorm.DB
	reader *gorm.DB
	now    func() time.Time
}

// NewErrorLogRepository creates a new repository instance using the main database for
// writes and the read-only connection for listings.
func NewErrorLogRepository() *ErrorLogRepository {
	logger.WithField("component", "ErrorLogRepository").
		Info("Creating new ErrorLogRepository with MainDB")

	return &ErrorLogRepository{
		db:     database.MainDB,
		reader: database.Reader(),
		now:    time.Now,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *ErrorLogRepository) WithDB(db *gorm.DB) *ErrorLogRepository {
	return &ErrorLogRepository{db: db, reader: db, now: r.clock()}
}

// WithClock overrides the clock used to stamp new logs.
func (r *ErrorLogRepository) WithClock(now func() time.Time) *ErrorLogRepository {
	return &ErrorLogRepository{db: r.db, reader: r.reader, now: now}
}

func (r *ErrorLogRepository) clock() func() time.Time {
	if r.now == nil {
		return time.Now
	}
	return r.now
}

// Create validates payload and stores a new error log reported by userID.
// Every field error, including references to agents or exceptions that do not exist,
// is collected and returned as one *model.ValidationError; nothing is written then.
func (r *ErrorLogRepository) Create(
	ctx context.Context,
	userID uint,
	payload model.ErrorLogPayload,
) (*model.ErrorLog, error) {

	entry, agentID, exceptionID, verr := parseErrorLogPayload(payload)
	entry.UserID = userID

	logger.WithFields(map[string]interface{}{
		"repo":         "ErrorLogRepository",
		"op":           "Create",
		"user_id":      userID,
		"agent_id":     agentID,
		"exception_id": exceptionID,
		"level":        entry.Level,
	}).Debug("Creating error log")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if agentID != 0 {
			if err := requireRow(tx, &model.Agent{}, agentID, "agent", verr); err != nil {
				return err
			}
		}
		if exceptionID != 0 {
			if err := requireRow(tx, &model.AppException{}, exceptionID, "exception", verr); err != nil {
				return err
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		entry.AgentID = agentID
		entry.ExceptionID = exceptionID
		entry.Date = r.clock()().UTC()

		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.Preload("Agent").Preload("Exception").First(entry, entry.ID).Error
	})
	if err != nil {
		err = asValidationError(err, NonFieldErrors, "Error log could not be stored.")

		logger.WithFields(map[string]interface{}{
			"repo":    "ErrorLogRepository",
			"op":      "Create",
			"user_id": userID,
		}).WithError(err).Warn("Error log not created")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "ErrorLogRepository",
		"op":           "Create",
		"error_log_id": entry.ID,
	}).Info("Error log created successfully")

	return entry, nil
}

func parseErrorLogPayload(payload model.ErrorLogPayload) (*model.ErrorLog, uint, uint, *model.ValidationError) {
	verr := model.NewValidationError()
	entry := &model.ErrorLog{}

	switch {
	case payload.Description == nil:
		verr.Add("description", model.MsgRequired)
	case strings.TrimSpace(*payload.Description) == "":
		verr.Add("description", model.MsgBlank)
	default:
		entry.Description = strings.TrimSpace(*payload.Description)
	}

	if payload.Level == nil {
		verr.Add("level", model.MsgRequired)
	} else if level, err := model.ParseLevel(*payload.Level); err != nil {
		verr.Add("level", err.Error())
	} else {
		entry.Level = level
	}

	if payload.Environment == nil {
		verr.Add("environment", model.MsgRequired)
	} else if env, err := model.ParseEnvironment(*payload.Environment); err != nil {
		verr.Add("environment", err.Error())
	} else {
		entry.Environment = env
	}

	agentID, _ := parsePK(payload.Agent, "agent", verr)
	exceptionID, _ := parsePK(payload.Exception, "exception", verr)

	return entry, agentID, exceptionID, verr
}

// requireRow adds a field error when no row of dest's table has the given id.
func requireRow(tx *gorm.DB, dest interface{}, id uint, field string, verr *model.ValidationError) error {
	var n int64
	if err := tx.Model(dest).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		verr.Add(field, missingPK(id))
	}
	return nil
}

// List returns one page of error logs matching f, ordered by ordering and then by id.
// Agent and exception are loaded for every row.
func (r *ErrorLogRepository) List(
	ctx context.Context,
	f filter.ErrorLogFilter,
	ordering filter.Ordering,
	page filter.Pagination,
) (model.Page[model.ErrorLog], error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "ErrorLogRepository",
		"op":       "List",
		"page":     page.Number,
		"filtered": !f.IsEmpty(),
	}).Debug("Listing error logs")

	base := f.Apply(r.reader.WithContext(ctx).Model(&model.ErrorLog{}), filter.ErrorLogColumns).
		Session(&gorm.Session{})

	var out model.Page[model.ErrorLog]
	if err := base.Count(&out.Count).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ErrorLogRepository",
			"op":   "List",
		}).WithError(err).Error("Failed to count error logs")

		return out, err
	}

	page, err := page.Resolve(out.Count)
	if err != nil {
		return out, err
	}

	query := base.Select("error_logs.*")
	if ordering.Has("exception__title") {
		query = query.Joins("JOIN app_exceptions ON app_exceptions.id = error_logs.exception_id")
	}
	query = page.Apply(ordering.Apply(query, "error_logs.id"))

	out.Results = []model.ErrorLog{}
	if err := query.Preload("Agent").Preload("Exception").Find(&out.Results).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ErrorLogRepository",
			"op":   "List",
		}).WithError(err).Error("Failed to list error logs")

		return out, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "ErrorLogRepository",
		"op":          "List",
		"count":       out.Count,
		"rows_return": len(out.Results),
	}).Debug("Error logs listed")

	return out, nil
}

// FindByID fetches a single error log with its agent and exception.
// Returns (nil, nil) if the log is not found.
func (r *ErrorLogRepository) FindByID(
	ctx context.Context,
	id uint,
) (*model.ErrorLog, error) {

	var entry model.ErrorLog
	res := r.reader.WithContext(ctx).
		Preload("Agent").
		Preload("Exception").
		Limit(1).
		Find(&entry, id)

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ErrorLogRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(res.Error).Error("Failed to fetch error log by ID")

		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		logger.WithFields(map[string]interface{}{
			"repo": "ErrorLogRepository",
			"op":   "FindByID",
			"id":   id,
		}).Info("Error log not found")

		return nil, nil
	}

	return &entry, nil
}

// Delete removes a single error log. Returns ErrNotFound when no row has id.
func (r *ErrorLogRepository) Delete(
	ctx context.Context,
	id uint,
) error {

	res := r.db.WithContext(ctx).Delete(&model.ErrorLog{}, id)
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ErrorLogRepository",
			"op":   "Delete",
			"id":   id,
		}).WithError(res.Error).Error("Failed to delete error log")

		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.WithFields(map[string]interface{}{
		"repo": "ErrorLogRepository",
		"op":   "Delete",
		"id":   id,
	}).Info("Error log deleted")

	return nil
}
