package repository

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"errorcentral/src/model"
)

// ErrNotFound is returned by operations addressing a record that does not exist.
var ErrNotFound = errors.New("record not found")

// NonFieldErrors is the key used for validation messages not tied to one field.
const NonFieldErrors = "non_field_errors"

// asValidationError maps store constraint violations to validation errors.
// Other errors are returned unchanged.
func asValidationError(err error, uniqueField, uniqueMsg string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		verr := model.NewValidationError()
		verr.Add(uniqueField, uniqueMsg)
		return verr
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		verr := model.NewValidationError()
		verr.Add(NonFieldErrors, "A referenced object does not exist.")
		return verr
	default:
		return err
	}
}

// parsePK reads a primary key reference from a raw JSON value. Numbers and numeric
// strings are accepted. ok is false when a message was added to verr.
func parsePK(raw json.RawMessage, field string, verr *model.ValidationError) (uint, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		verr.Add(field, model.MsgRequired)
		return 0, false
	}

	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return uint(n), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil && n > 0 {
			return uint(n), true
		}
		verr.Add(field, "Invalid pk \""+s+"\" - object does not exist.")
		return 0, false
	}

	verr.Add(field, "Incorrect type. Expected pk value, received "+jsonKind(trimmed)+".")
	return 0, false
}

func jsonKind(v string) string {
	switch v[0] {
	case '"':
		return "str"
	case '{':
		return "dict"
	case '[':
		return "list"
	case 't', 'f':
		return "bool"
	default:
		return "number"
	}
}

func missingPK(id uint) string {
	return "Invalid pk \"" + strconv.FormatUint(uint64(id), 10) + "\" - object does not exist."
}
