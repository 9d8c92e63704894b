package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfill/internal/domain"
)

// MockSessionStore is a mock implementation of port.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Ensure(ctx context.Context, id string) (domain.SessionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.SessionRecord), args.Error(1)
}

func (m *MockSessionStore) Put(ctx context.Context, id string, docType domain.DocumentType, fields domain.FieldMap) error {
	args := m.Called(ctx, id, docType, fields)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (domain.SessionRecord, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(domain.SessionRecord), args.Bool(1), args.Error(2)
}

func (m *MockSessionStore) Destroy(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
