package model

import (
	"encoding/json"
	"time"
)

// ErrorLog is a single reported occurrence of an AppException.
// User, Exception and Agent are required; deleting any of them removes the log.
type ErrorLog struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Date        time.Time   `gorm:"column:date;not null;autoCreateTime;<-:create;index" json:"date"`
	Level       Level       `gorm:"size:30;not null;index" json:"level"`
	Environment Environment `gorm:"size:30;not null;index" json:"environment"`

	UserID      uint `gorm:"not null;index" json:"user"`
	ExceptionID uint `gorm:"not null;index" json:"-"`
	AgentID     uint `gorm:"not null;index" json:"-"`

	User      *User         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Exception *AppException `gorm:"constraint:OnDelete:CASCADE" json:"exception"`
	Agent     *Agent        `gorm:"constraint:OnDelete:CASCADE" json:"agent"`
}

func (ErrorLog) TableName() string { return "error_logs" }

func (l ErrorLog) String() string {
	return l.Description
}

// ErrorLogPayload is the client-writable field set of an ErrorLog.
// The reporting user and the date are never part of it: both are bound server side.
// Agent and Exception are kept raw so that type errors are reported per field.
type ErrorLogPayload struct {
	Description *string         `json:"description"`
	Level       *string         `json:"level"`
	Environment *string         `json:"environment"`
	Agent       json.RawMessage `json:"agent"`
	Exception   json.RawMessage `json:"exception"`
}
