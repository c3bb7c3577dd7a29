package models

import "fmt"

// MalformedRecordError reports a spreadsheet row that failed required-field
// validation. Row is the sheet row number as shown in the spreadsheet, so the
// first data row under the header is row 2.
type MalformedRecordError struct {
	Sheet    string
	Row      int
	RecordID string
	Reason   string
	Err      error
}

func (e *MalformedRecordError) Error() string {
	loc := ""
	if e.Sheet != "" {
		loc = e.Sheet
	}
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", loc, e.Row)
	}
	id := e.RecordID
	if id == "" {
		id = "N/A"
	}
	if loc == "" {
		return fmt.Sprintf("malformed record (ID: %s): %s", id, e.Reason)
	}
	return fmt.Sprintf("malformed record in %s (ID: %s): %s", loc, id, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

func malformed(id, reason string) *MalformedRecordError {
	return &MalformedRecordError{RecordID: id, Reason: reason}
}
