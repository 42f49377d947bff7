package model

// AppException is a named class of error condition (e.g. "NullPointerException").
// Many error logs reference the same exception; the title is unique across the system.
type AppException struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:150;not null;uniqueIndex" json:"title"`
}

func (AppException) TableName() string { return "app_exceptions" }

// String returns the exception title.
func (e AppException) String() string {
	return e.Title
}

// AppExceptionPayload is the writable field set of an AppException.
type AppExceptionPayload struct {
	Title *string `json:"title"`
}
