package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/parapet-sh/parapet/internal/posture"
)

// MockClient is a mock implementation of Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) FetchPolicies(ctx context.Context) (*Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Snapshot), args.Error(1)
}

func (m *MockClient) SetLogging(ctx context.Context, id string, enabled bool, origin posture.Origin) (*posture.Policy, error) {
	args := m.Called(ctx, id, enabled, origin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posture.Policy), args.Error(1)
}

func (m *MockClient) BulkSetLogging(ctx context.Context, updates []LoggingUpdate) (*BulkResult, error) {
	args := m.Called(ctx, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BulkResult), args.Error(1)
}
