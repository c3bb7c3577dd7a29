package sheets

import (
	"errors"
	"fmt"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrNoRows        = errors.New("sheet has no data rows")
)

// DataFetchError means the rows for a sheet could not be obtained: the fetch
// failed, the sheet does not exist, or it holds no data.
type DataFetchError struct {
	Sheet string
	Err   error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("data unavailable for sheet %q: %v", e.Sheet, e.Err)
}

func (e *DataFetchError) Unwrap() error {
	return e.Err
}
