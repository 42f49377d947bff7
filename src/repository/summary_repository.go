package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"errorcentral/src/database"
	"errorcentral/src/filter"
	"errorcentral/src/model"
)

// SummaryOrderingFields are the orderings accepted by the summary listing.
var SummaryOrderingFields = map[string]string{
	"events": "g.events",
	"level":  "latest.level",
}

// SummaryRepository aggregates error logs per exception.
type SummaryRepository struct {
	reader *gorm.DB
}

// NewSummaryRepository creates a repository reading from the read-only connection.
func NewSummaryRepository() *SummaryRepository {
	return &SummaryRepository{reader: database.Reader()}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *SummaryRepository) WithDB(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{reader: db}
}

type summaryRow struct {
	ExceptionID uint
	Events      int64
	Level       model.Level
}

// Summarize returns one summary per exception referenced by at least one error log
// matching f. The filter runs on the error log rows before grouping, so exceptions
// without matching rows do not appear at all.
//
// The representative level of a group is the level of its most recently created row
// (highest id). Groups are ordered by ordering and then by exception id, which is
// also the default order.
func (r *SummaryRepository) Summarize(
	ctx context.Context,
	f filter.ErrorLogFilter,
	ordering filter.Ordering,
	page filter.Pagination,
) (model.Page[model.Summary], error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "SummaryRepository",
		"op":       "Summarize",
		"page":     page.Number,
		"filtered": !f.IsEmpty(),
	}).Debug("Summarizing error logs")

	db := r.reader.WithContext(ctx)

	var out model.Page[model.Summary]
	if err := db.Table("(?) AS g", r.groups(db, f)).Count(&out.Count).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SummaryRepository",
			"op":   "Summarize",
		}).WithError(err).Error("Failed to count summary groups")

		return out, err
	}

	page, err := page.Resolve(out.Count)
	if err != nil {
		return out, err
	}

	query := db.Table("(?) AS g", r.groups(db, f)).
		Select("g.exception_id AS exception_id, g.events AS events, latest.level AS level").
		Joins("JOIN error_logs latest ON latest.id = g.latest_id")
	query = page.Apply(ordering.Apply(query, "g.exception_id"))

	var rows []summaryRow
	if err := query.Scan(&rows).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SummaryRepository",
			"op":   "Summarize",
		}).WithError(err).Error("Failed to aggregate error logs")

		return out, err
	}

	exceptions, err := r.exceptionsByID(db, rows)
	if err != nil {
		return out, err
	}

	out.Results = make([]model.Summary, 0, len(rows))
	for _, row := range rows {
		out.Results = append(out.Results, model.Summary{
			Exception: exceptions[row.ExceptionID],
			Events:    row.Events,
			Level:     row.Level,
		})
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "SummaryRepository",
		"op":          "Summarize",
		"count":       out.Count,
		"rows_return": len(out.Results),
	}).Debug("Error logs summarized")

	return out, nil
}

// groups is the filtered error_logs rows grouped by exception.
func (r *SummaryRepository) groups(db *gorm.DB, f filter.ErrorLogFilter) *gorm.DB {
	return f.Apply(db.Table("error_logs"), filter.ErrorLogColumns).
		Select("error_logs.exception_id AS exception_id, COUNT(*) AS events, MAX(error_logs.id) AS latest_id").
		Group("error_logs.exception_id")
}

func (r *SummaryRepository) exceptionsByID(db *gorm.DB, rows []summaryRow) (map[uint]model.AppException, error) {
	out := make(map[uint]model.AppException, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ExceptionID)
	}

	var exceptions []model.AppException
	if err := db.Where("id IN ?", ids).Find(&exceptions).Error; err != nil {
		return nil, err
	}
	for _, exc := range exceptions {
		out[exc.ID] = exc
	}

	return out, nil
}
