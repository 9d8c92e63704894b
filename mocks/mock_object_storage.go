package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfill/internal/port"
)

// MockObjectStorage is a mock implementation of port.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadOutput), args.Error(1)
}

func (m *MockObjectStorage) DeletePrefix(ctx context.Context, bucket, prefix string) (int, error) {
	args := m.Called(ctx, bucket, prefix)
	return args.Int(0), args.Error(1)
}
