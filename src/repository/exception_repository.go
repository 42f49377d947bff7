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

const (
	exceptionTitleMaxLen = 150
	msgDuplicateTitle    = "app exception with this title already exists."
)

// AppExceptionOrderingFields are the orderings accepted by the exception listing.
var AppExceptionOrderingFields = map[string]string{
	"title": "app_exceptions.title",
}

// AppExceptionRepository handles persistence of exception classes.
type AppExceptionRepository struct {
	db     *gorm.DB
	reader *gorm.DB
}

// NewAppExceptionRepository creates a new repository instance.
func NewAppExceptionRepository() *AppExceptionRepository {
	return &AppExceptionRepository{
		db:     database.MainDB,
		reader: database.Reader(),
	}
}

// WithDB allows overriding the underlying *gorm.DB instance for reads and writes.
func (r *AppExceptionRepository) WithDB(db *gorm.DB) *AppExceptionRepository {
	return &AppExceptionRepository{db: db, reader: db}
}

// Create persists a new exception. Titles are unique: the pre-check gives a clean
// message in the common case and the unique index settles concurrent creations.
func (r *AppExceptionRepository) Create(
	ctx context.Context,
	payload model.AppExceptionPayload,
) (*model.AppException, error) {

	verr := model.NewValidationError()
	var title string
	switch {
	case payload.Title == nil:
		verr.Add("title", model.MsgRequired)
	case strings.TrimSpace(*payload.Title) == "":
		verr.Add("title", model.MsgBlank)
	default:
		title = strings.TrimSpace(*payload.Title)
		if utf8.RuneCountInString(title) > exceptionTitleMaxLen {
			verr.Add("title", "Ensure this field has no more than 150 characters.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "AppExceptionRepository",
		"op":    "Create",
		"title": title,
	}).Debug("Creating app exception")

	exc := &model.AppException{Title: title}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.AppException{}).Where("title = ?", title).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			dup := model.NewValidationError()
			dup.Add("title", msgDuplicateTitle)
			return dup
		}
		return tx.Create(exc).Error
	})
	if err != nil {
		err = asValidationError(err, "title", msgDuplicateTitle)

		logger.WithFields(map[string]interface{}{
			"repo":  "AppExceptionRepository",
			"op":    "Create",
			"title": title,
		}).WithError(err).Warn("App exception not created")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "AppExceptionRepository",
		"op":           "Create",
		"exception_id": exc.ID,
	}).Info("App exception created successfully")

	return exc, nil
}

// List returns one page of exceptions whose title contains every word of search,
// ordered by ordering and then by id.
func (r *AppExceptionRepository) List(
	ctx context.Context,
	search string,
	ordering filter.Ordering,
	page filter.Pagination,
) (model.Page[model.AppException], error) {

	base := filter.Search(r.reader.WithContext(ctx).Model(&model.AppException{}), "app_exceptions.title", search).
		Session(&gorm.Session{})

	var out model.Page[model.AppException]
	if err := base.Count(&out.Count).Error; err != nil {
		return out, err
	}

	page, err := page.Resolve(out.Count)
	if err != nil {
		return out, err
	}

	out.Results = []model.AppException{}
	query := page.Apply(ordering.Apply(base, "app_exceptions.id"))
	if err := query.Find(&out.Results).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "AppExceptionRepository",
			"op":     "List",
			"search": search,
		}).WithError(err).Error("Failed to list app exceptions")

		return out, err
	}

	return out, nil
}

// Delete removes an exception together with every error log referencing it.
func (r *AppExceptionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.AppException{}, id)
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AppExceptionRepository",
			"op":   "Delete",
			"id":   id,
		}).WithError(res.Error).Error("Failed to delete app exception")

		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
