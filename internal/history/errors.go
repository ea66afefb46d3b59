package history

import (
	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = ferrors.HistoryError("could not open history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = ferrors.HistoryError("failed to initialize history schema").Build()

	// ErrRecordFailed indicates a run could not be stored.
	ErrRecordFailed = ferrors.HistoryError("failed to record run").Build()

	// ErrQueryFailed indicates reading history failed.
	ErrQueryFailed = ferrors.HistoryError("failed to query history").Build()
)

// wrap attaches cause to a copy of sentinel so errors.Is still matches it.
func wrap(sentinel *ferrors.ClassifiedError, cause error) error {
	return ferrors.WrapError(cause, sentinel.Category(), sentinel.Message()).
		WithSeverity(sentinel.Severity()).
		Build()
}
