package orchestrators

import (
	"context"
	"database/sql"
	"errors"
)

// Errors shared by orchestrators. Handlers map these to redirects and flash messages.
var (
	ErrNotFound  = errors.New("the requested record was not found")
	ErrForbidden = errors.New("you do not have permission to do that")
)

// notFound maps a store's sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type clientIPKey struct{}

// WithClientIP returns a context carrying the requesting client's address,
// recorded alongside activity log entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
