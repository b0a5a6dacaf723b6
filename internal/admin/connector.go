package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/andrej220/siteops/pkg/lg"
)

const probePath = "/api/v1/whoami"

// Connector establishes authenticated per-site sessions. Probes run
// through a shared circuit breaker: once several consecutive sites fail to
// answer, later connects fail fast instead of hammering a dead tenant.
// A tripped breaker is still a per-target establishment failure, never a
// batch abort.
type Connector struct {
	creds    Credentials
	tokenTTL time.Duration
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   lg.Logger
}

func NewConnector(creds Credentials, logger lg.Logger) *Connector {
	cbs := gobreaker.Settings{
		Name:        "admin-session",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}
	return &Connector{
		creds:    creds,
		tokenTTL: DefaultTokenTTL,
		client:   &http.Client{Timeout: 30 * time.Second},
		breaker:  gobreaker.NewCircuitBreaker(cbs),
		logger:   logger,
	}
}

// Connect issues a fresh token for target and verifies it with a probe
// request. The returned session is valid for one batch iteration.
func (c *Connector) Connect(ctx context.Context, target string) (*Session, error) {
	token, err := issueToken(c.creds, c.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	sess := &Session{
		site:   strings.TrimRight(target, "/"),
		token:  token,
		client: c.client,
	}

	_, err = c.breaker.Execute(func() (any, error) {
		return nil, sess.get(ctx, probePath, nil)
	})
	if err != nil {
		c.logger.Debug("session probe failed", lg.String("target", target), lg.Err(err))
		return nil, fmt.Errorf("probe %s: %w", sess.site+probePath, err)
	}
	return sess, nil
}
