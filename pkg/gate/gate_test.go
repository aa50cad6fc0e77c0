package gate_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"portal/pkg/auth"
	"portal/pkg/gate"
	"portal/pkg/session"
)

type mockDecoder struct {
	mock.Mock
}

func (m *mockDecoder) Decode(carrier string) (string, error) {
	args := m.Called(carrier)
	return args.String(0), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) CurrentUser(ctx context.Context, sessionID string) (session.Summary, error) {
	args := m.Called(sessionID)
	return args.Get(0).(session.Summary), args.Error(1)
}

var alice = session.Summary{ID: "u1", Username: "alice", Role: "organization"}

func newGate() (*gate.Gate, *mockDecoder, *mockResolver) {
	d := new(mockDecoder)
	r := new(mockResolver)
	return gate.New(d, r, slog.New(slog.NewTextHandler(io.Discard, nil))), d, r
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("no carrier short-circuits", func(t *testing.T) {
		g, d, r := newGate()

		dec := g.Authorize(ctx, gate.RequestContext{})

		assert.False(t, dec.Admitted)
		assert.Equal(t, gate.ReasonSessionContextMissing, dec.Reason)
		d.AssertNotCalled(t, "Decode", mock.Anything)
		r.AssertNotCalled(t, "CurrentUser", mock.Anything)
	})

	t.Run("bad carrier", func(t *testing.T) {
		g, d, r := newGate()
		d.On("Decode", "junk").Return("", errors.New("bad signature"))

		dec := g.Authorize(ctx, gate.RequestContext{SessionCarrier: "junk"})

		assert.False(t, dec.Admitted)
		assert.Equal(t, gate.ReasonNotAuthenticated, dec.Reason)
		r.AssertNotCalled(t, "CurrentUser", mock.Anything)
	})

	t.Run("dead session", func(t *testing.T) {
		g, d, r := newGate()
		d.On("Decode", "tok").Return("sid", nil)
		r.On("CurrentUser", "sid").Return(session.Summary{}, auth.ErrNotAuthenticated)

		dec := g.Authorize(ctx, gate.RequestContext{SessionCarrier: "tok"})

		assert.False(t, dec.Admitted)
		assert.Equal(t, gate.ReasonNotAuthenticated, dec.Reason)
		assert.Empty(t, dec.Summary)
	})

	t.Run("admit", func(t *testing.T) {
		g, d, r := newGate()
		d.On("Decode", "tok").Return("sid", nil)
		r.On("CurrentUser", "sid").Return(alice, nil)

		dec := g.Authorize(ctx, gate.RequestContext{SessionCarrier: "tok"})

		assert.True(t, dec.Admitted)
		assert.Equal(t, alice, dec.Summary)
	})

	t.Run("no caching between requests", func(t *testing.T) {
		g, d, r := newGate()
		d.On("Decode", "tok").Return("sid", nil)
		r.On("CurrentUser", "sid").Return(alice, nil).Once()
		r.On("CurrentUser", "sid").Return(session.Summary{}, auth.ErrNotAuthenticated).Once()

		assert.True(t, g.Authorize(ctx, gate.RequestContext{SessionCarrier: "tok"}).Admitted)
		assert.False(t, g.Authorize(ctx, gate.RequestContext{SessionCarrier: "tok"}).Admitted)
		r.AssertNumberOfCalls(t, "CurrentUser", 2)
	})
}

func TestSummaryContext(t *testing.T) {
	_, ok := gate.SummaryFromContext(context.Background())
	assert.False(t, ok)

	ctx := gate.WithSummary(context.Background(), alice)
	s, ok := gate.SummaryFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, alice, s)
}
