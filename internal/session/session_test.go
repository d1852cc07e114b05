package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parapet-sh/parapet/internal/clock"
	"github.com/parapet-sh/parapet/internal/events"
	"github.com/parapet-sh/parapet/internal/gateway"
	"github.com/parapet-sh/parapet/internal/posture"
)

func testPolicy(id string, origin posture.Origin, logging bool) posture.Policy {
	return posture.Policy{
		ID:             id,
		Name:           id,
		Index:          100,
		Action:         posture.Action{Type: posture.ActionAllow},
		Source:         posture.Selector{"zoneId": "z-int"},
		Destination:    posture.Selector{"zoneId": "z-ext"},
		Metadata:       posture.Metadata{Origin: origin},
		LoggingEnabled: logging,
	}
}

func testSnapshot(policies ...posture.Policy) *gateway.Snapshot {
	return &gateway.Snapshot{
		Zones: []posture.Zone{
			{ID: "z-int", Name: "Internal"},
			{ID: "z-ext", Name: "External"},
		},
		Policies:   policies,
		TotalCount: len(policies),
	}
}

func newLoadedStore(t *testing.T, gw *gateway.MockClient, snap *gateway.Snapshot) (*Store, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	s := New(gw, Options{Clock: clk})

	gw.On("FetchPolicies", mock.Anything).Return(snap, nil).Once()
	require.NoError(t, s.Load(context.Background(), "test"))
	return s, clk
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	gw := new(gateway.MockClient)
	s := New(gw, Options{Clock: clock.NewMockClock(time.Now())})

	gw.On("FetchPolicies", mock.Anything).Return(nil, errors.New("gateway down")).Once()
	err := s.Load(context.Background(), "initial")
	require.Error(t, err)
	assert.False(t, s.Loaded())

	_, err = s.Snapshot()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.Matrix()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSnapshotReturnsCopy(t *testing.T) {
	gw := new(gateway.MockClient)
	s, _ := newLoadedStore(t, gw, testSnapshot(testPolicy("p1", posture.OriginUserDefined, false)))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	snap.Policies[0].LoggingEnabled = true

	again, err := s.Snapshot()
	require.NoError(t, err)
	assert.False(t, again.Policies[0].LoggingEnabled, "callers must not mutate shared state")
}

func TestMatrixFromCollection(t *testing.T) {
	block := testPolicy("p1", posture.OriginUserDefined, false)
	block.Action.Type = posture.ActionBlock
	gw := new(gateway.MockClient)
	s, _ := newLoadedStore(t, gw, testSnapshot(block))

	m, err := s.Matrix()
	require.NoError(t, err)
	cell := m.Cells[posture.CellKey("z-int", "z-ext")]
	require.NotNil(t, cell)
	assert.Equal(t, posture.PostureBlockAll, cell.DefaultAction)
	assert.Equal(t, 1, cell.PolicyCount)
	assert.Nil(t, m.Cells[posture.CellKey("z-ext", "z-int")])
}

func TestEligible(t *testing.T) {
	policies := []posture.Policy{
		testPolicy("custom-off", posture.OriginUserDefined, false),
		testPolicy("custom-on", posture.OriginUserDefined, true),
		testPolicy("derived", posture.OriginDerived, false),
	}
	paused := testPolicy("paused", posture.OriginUserDefined, false)
	f := false
	paused.Enabled = &f
	policies = append(policies, paused)

	eligible := Eligible(policies, true)
	require.Len(t, eligible, 1)
	// Derived and paused are excluded even when explicitly listed, and
	// already-matching policies are never re-sent.
	assert.Equal(t, "custom-off", eligible[0].ID)
}

func TestTransientErrorExpires(t *testing.T) {
	gw := new(gateway.MockClient)
	s, clk := newLoadedStore(t, gw, testSnapshot(testPolicy("p1", posture.OriginUserDefined, false)))

	gw.On("SetLogging", mock.Anything, "p1", true, posture.OriginUserDefined).
		Return(nil, errors.New("mutation rejected")).Once()

	err := s.ToggleLogging(context.Background(), "p1", true)
	require.Error(t, err)
	assert.Equal(t, "mutation rejected", s.TransientError())

	clk.Advance(3 * time.Second)
	assert.Equal(t, "mutation rejected", s.TransientError())

	clk.Advance(3 * time.Second)
	assert.Empty(t, s.TransientError(), "banner auto-clears after the TTL")
}

func TestMutationInFlightSerializes(t *testing.T) {
	gw := new(gateway.MockClient)
	s, _ := newLoadedStore(t, gw, testSnapshot(testPolicy("p1", posture.OriginUserDefined, false)))

	require.NoError(t, s.beginMutation())
	assert.True(t, s.MutationInFlight())

	err := s.ToggleLogging(context.Background(), "p1", true)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	_, err = s.BulkSetLogging(context.Background(), nil, true)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	s.endMutation()
	assert.False(t, s.MutationInFlight())
}

func TestReloadedEventPublished(t *testing.T) {
	hub := events.NewHub()
	ch := hub.Subscribe(4, events.EventReloaded)

	gw := new(gateway.MockClient)
	s := New(gw, Options{Clock: clock.NewMockClock(time.Now()), Hub: hub})
	gw.On("FetchPolicies", mock.Anything).Return(testSnapshot(), nil).Once()
	require.NoError(t, s.Load(context.Background(), "refresh"))

	e := <-ch
	data := e.Data.(events.ReloadedData)
	assert.Equal(t, 2, data.Zones)
	assert.Equal(t, "refresh", data.Reason)
}
