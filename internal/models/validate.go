package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report spreadsheet column names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if col := f.Tag.Get("col"); col != "" {
			return col
		}
		return f.Name
	})
	return v
}

func validateRow(id string, row any) error {
	err := validate.Struct(row)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		cols := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			cols = append(cols, fe.Field())
		}
		return &MalformedRecordError{
			RecordID: id,
			Reason:   "missing required fields: " + strings.Join(cols, ", "),
			Err:      err,
		}
	}
	return &MalformedRecordError{RecordID: id, Reason: err.Error(), Err: err}
}

// field returns the first non-empty trimmed value among keys.
func field(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

func idOf(row map[string]string, keys ...string) string {
	if id := field(row, keys...); id != "" {
		return id
	}
	return "N/A"
}
