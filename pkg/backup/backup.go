package backup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/observability/metrics"
)

const defaultAPIURL = "https://api.github.com"

// Target is implemented by memory.Store.
type Target interface {
	Backup(ctx context.Context, repo string) (models.StatusResponse, error)
}

// Credentials returns the current repository and token. It is called on
// every cycle so that configuration changes are picked up without restart.
type Credentials func() (repo, token string)

type Options struct {
	Interval      time.Duration
	RetryInterval time.Duration
	// APIURL points at the GitHub REST API.
	APIURL string
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Hour
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 5 * time.Minute
	}
	if o.APIURL == "" {
		o.APIURL = defaultAPIURL
	}
	o.APIURL = strings.TrimRight(o.APIURL, "/")
}

type Loop struct {
	target      Target
	credentials Credentials
	opts        Options
}

func NewLoop(target Target, credentials Credentials, opts Options) *Loop {
	opts.defaults()
	return &Loop{target: target, credentials: credentials, opts: opts}
}

// Run backs up once per Interval until ctx is done. After a failed cycle it
// waits RetryInterval instead.
func (l *Loop) Run(ctx context.Context) error {
	logger.Log.WithField("interval", l.opts.Interval.String()).Info("Backup loop started")
	for {
		wait := l.opts.Interval
		if err := l.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Backup failed")
			wait = l.opts.RetryInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Log.Info("Backup loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce performs one cycle. Missing credentials skip the cycle.
func (l *Loop) RunOnce(ctx context.Context) error {
	repo, token := l.credentials()
	if repo == "" || token == "" {
		logger.Log.Debug("Backup skipped, GitHub repository or token not configured")
		return nil
	}

	err := l.backup(ctx, repo, token)
	metrics.BackupFinished(err)
	if err == nil {
		logger.Log.WithField("repo", repo).Info("Backed up data to GitHub repository")
	}
	return err
}

func (l *Loop) backup(ctx context.Context, repo, token string) error {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if err := l.checkRepository(ctx, client, repo); err != nil {
		return err
	}

	res, err := l.target.Backup(ctx, repo)
	if err != nil {
		return fmt.Errorf("backup to %s: %w", repo, err)
	}
	if res.Status != models.StatusSuccess {
		return fmt.Errorf("backup to %s: %s", repo, res.Message)
	}
	return nil
}

// checkRepository confirms the token can see repo before anything is pushed.
func (l *Loop) checkRepository(ctx context.Context, client *http.Client, repo string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.opts.APIURL+"/repos/"+repo, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("check repository %s: %w", repo, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("check repository %s: github returned %d", repo, resp.StatusCode)
	}
	return nil
}
