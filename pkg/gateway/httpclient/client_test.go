package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	tests := map[string]struct {
		errs     []error
		attempts int
		expCalls int
		expErr   bool
	}{
		"A first success should not retry.": {
			errs:     []error{nil},
			attempts: 3,
			expCalls: 1,
		},
		"Server errors should be retried until success.": {
			errs:     []error{&StatusError{Code: 502}, &StatusError{Code: 503}, nil},
			attempts: 3,
			expCalls: 3,
		},
		"Client errors should stop immediately.": {
			errs:     []error{&StatusError{Code: 400}, nil},
			attempts: 3,
			expCalls: 1,
			expErr:   true,
		},
		"Rate limiting should be retried.": {
			errs:     []error{&StatusError{Code: http.StatusTooManyRequests}, nil},
			attempts: 3,
			expCalls: 2,
		},
		"Exhausted attempts should return the last error.": {
			errs:     []error{&StatusError{Code: 500}, &StatusError{Code: 500}},
			attempts: 2,
			expCalls: 2,
			expErr:   true,
		},
		"A single attempt should not retry.": {
			errs:     []error{&StatusError{Code: 500}, nil},
			attempts: 1,
			expCalls: 1,
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), test.attempts, time.Millisecond, func() error {
				err := test.errs[calls]
				calls++
				return err
			})
			assert.Equal(t, test.expCalls, calls)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &StatusError{Code: 503}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetriable(t *testing.T) {
	assert.True(t, IsRetriable(context.DeadlineExceeded))
	assert.False(t, IsRetriable(context.Canceled))
	assert.False(t, IsRetriable(errors.New("boom")))
	assert.True(t, IsRetriable(&StatusError{Code: 500}))
	assert.False(t, IsRetriable(&StatusError{Code: 404}))
}
