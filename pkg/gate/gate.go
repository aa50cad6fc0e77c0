// Package gate decides whether a request may reach a protected handler.
// It establishes identity only; what an identity may do is left to the
// handlers behind it.
package gate

import (
	"context"
	"log/slog"

	"portal/pkg/session"
)

type Reason string

const (
	ReasonSessionContextMissing Reason = "session context missing"
	ReasonNotAuthenticated      Reason = "not authenticated"
)

// RequestContext is what the gate sees of a request: the raw session
// carrier, empty when the request has none.
type RequestContext struct {
	SessionCarrier string
}

type Decision struct {
	Admitted bool
	Summary  session.Summary
	Reason   Reason
}

func Admit(s session.Summary) Decision {
	return Decision{Admitted: true, Summary: s}
}

func Reject(r Reason) Decision {
	return Decision{Reason: r}
}

// CarrierDecoder turns a carrier into the session id it names.
type CarrierDecoder interface {
	Decode(carrier string) (string, error)
}

// Resolver returns the summary of a live session.
type Resolver interface {
	CurrentUser(ctx context.Context, sessionID string) (session.Summary, error)
}

type Gate struct {
	Carriers CarrierDecoder
	Sessions Resolver
	Logger   *slog.Logger
}

func New(carriers CarrierDecoder, sessions Resolver, logger *slog.Logger) *Gate {
	return &Gate{Carriers: carriers, Sessions: sessions, Logger: logger}
}

// Authorize evaluates one request against the current session store. It
// keeps no state between calls.
func (g *Gate) Authorize(ctx context.Context, rc RequestContext) Decision {
	if rc.SessionCarrier == "" {
		return Reject(ReasonSessionContextMissing)
	}

	sessionID, err := g.Carriers.Decode(rc.SessionCarrier)
	if err != nil {
		g.Logger.Debug("gate: bad carrier", "error", err)
		return Reject(ReasonNotAuthenticated)
	}

	summary, err := g.Sessions.CurrentUser(ctx, sessionID)
	if err != nil {
		return Reject(ReasonNotAuthenticated)
	}

	return Admit(summary)
}

type contextKey string

const summaryContextKey contextKey = "session"

func WithSummary(ctx context.Context, s session.Summary) context.Context {
	return context.WithValue(ctx, summaryContextKey, s)
}

func SummaryFromContext(ctx context.Context) (session.Summary, bool) {
	s, ok := ctx.Value(summaryContextKey).(session.Summary)
	if !ok || s.ID == "" {
		return session.Summary{}, false
	}
	return s, true
}
