package backup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

type fakeTarget struct {
	calls atomic.Int32
	res   models.StatusResponse
	err   error
}

func (f *fakeTarget) Backup(ctx context.Context, repo string) (models.StatusResponse, error) {
	f.calls.Add(1)
	return f.res, f.err
}

func githubStub(t *testing.T, status int) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var auth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		if r.URL.Path != "/repos/org/memory" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)
	return server, &auth
}

func static(repo, token string) Credentials {
	return func() (string, string) { return repo, token }
}

func TestRunOnce(t *testing.T) {
	tests := map[string]struct {
		repo, token string
		status      int
		target      *fakeTarget
		expCalls    int32
		expErr      bool
	}{
		"Missing credentials should skip the cycle.": {
			repo:     "org/memory",
			status:   http.StatusOK,
			target:   &fakeTarget{res: models.Success("ok")},
			expCalls: 0,
		},
		"A visible repository should be backed up.": {
			repo:     "org/memory",
			token:    "tok",
			status:   http.StatusOK,
			target:   &fakeTarget{res: models.Success("ok")},
			expCalls: 1,
		},
		"An unknown repository should fail before backing up.": {
			repo:     "org/other",
			token:    "tok",
			status:   http.StatusOK,
			target:   &fakeTarget{res: models.Success("ok")},
			expCalls: 0,
			expErr:   true,
		},
		"A rejected token should fail.": {
			repo:     "org/memory",
			token:    "tok",
			status:   http.StatusUnauthorized,
			target:   &fakeTarget{res: models.Success("ok")},
			expCalls: 0,
			expErr:   true,
		},
		"A failing target should fail.": {
			repo:     "org/memory",
			token:    "tok",
			status:   http.StatusOK,
			target:   &fakeTarget{err: errors.New("disk full")},
			expCalls: 1,
			expErr:   true,
		},
		"An error status from the target should fail.": {
			repo:     "org/memory",
			token:    "tok",
			status:   http.StatusOK,
			target:   &fakeTarget{res: models.Failure("nope")},
			expCalls: 1,
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			server, _ := githubStub(t, test.status)
			loop := NewLoop(test.target, static(test.repo, test.token), Options{APIURL: server.URL})

			err := loop.RunOnce(context.Background())
			assert.Equal(t, test.expCalls, test.target.calls.Load())
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunOnceSendsBearerToken(t *testing.T) {
	server, auth := githubStub(t, http.StatusOK)
	loop := NewLoop(&fakeTarget{res: models.Success("ok")}, static("org/memory", "tok"), Options{APIURL: server.URL})

	require.NoError(t, loop.RunOnce(context.Background()))
	assert.Equal(t, "Bearer tok", auth.Load())
}

func TestRunRetriesAndStops(t *testing.T) {
	server, _ := githubStub(t, http.StatusOK)
	target := &fakeTarget{err: errors.New("flaky")}
	loop := NewLoop(target, static("org/memory", "tok"), Options{
		APIURL:        server.URL,
		Interval:      time.Hour,
		RetryInterval: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool { return target.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("backup loop did not stop")
	}
}

func TestOptionsDefaults(t *testing.T) {
	loop := NewLoop(&fakeTarget{}, static("", ""), Options{APIURL: "https://example.test/"})
	assert.Equal(t, time.Hour, loop.opts.Interval)
	assert.Equal(t, 5*time.Minute, loop.opts.RetryInterval)
	assert.Equal(t, "https://example.test", loop.opts.APIURL)
}
