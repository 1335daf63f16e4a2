package commentservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// query_canceled, raised when statement_timeout fires or the query is cancelled server side.
const pqQueryCanceled = "57014"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEmailMismatch  = errors.New("email does not match the comment author")
	// ErrNotConfigured means no database was supplied. It is a deployment problem, not a transient one.
	ErrNotConfigured    = errors.New("comment store is not configured")
	ErrStoreTimeout     = errors.New("comment store timed out")
	ErrStoreUnavailable = errors.New("comment store unavailable")
)

// storeError classifies err from a call made under ctx.
func storeError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRecordNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded), isQueryCanceled(err):
		return fmt.Errorf("%w: %w", ErrStoreTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

func isQueryCanceled(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqQueryCanceled
}
