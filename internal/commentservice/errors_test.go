package commentservice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestStoreError(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-expired.Done()

	testCases := []struct {
		name string
		ctx  context.Context
		err  error
		want error
	}{
		{name: "nil", ctx: context.Background(), err: nil, want: nil},
		{name: "not found passes through", ctx: context.Background(), err: ErrRecordNotFound, want: ErrRecordNotFound},
		{name: "deadline", ctx: context.Background(), err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: ErrStoreTimeout},
		{name: "expired context", ctx: expired, err: errors.New("driver: bad connection"), want: ErrStoreTimeout},
		{name: "query canceled", ctx: context.Background(), err: &pq.Error{Code: "57014"}, want: ErrStoreTimeout},
		{name: "other postgres error", ctx: context.Background(), err: &pq.Error{Code: "42P01"}, want: ErrStoreUnavailable},
		{name: "connection refused", ctx: context.Background(), err: errors.New("dial tcp: connection refused"), want: ErrStoreUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := storeError(tc.ctx, tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}

			assert.ErrorIs(t, got, tc.want)
			if tc.err != nil && !errors.Is(tc.err, tc.want) {
				assert.ErrorIs(t, got, tc.err)
			}
		})
	}
}
