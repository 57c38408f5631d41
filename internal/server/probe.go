package server

import (
	"context"
	"net/url"
	"strings"
)

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// redactDSN hides the password of URL-style DSNs.
func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "<unparseable dsn>"
	}
	return u.Redacted()
}
