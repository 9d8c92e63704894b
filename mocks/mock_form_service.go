package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docfill/internal/domain"
	"docfill/internal/service"
)

// MockFormService is a mock implementation of service.FormService.
type MockFormService struct {
	mock.Mock
}

func (m *MockFormService) AnalyzeAndStore(ctx context.Context, input service.AnalyzeInput) (*service.AnalyzeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalyzeResult), args.Error(1)
}

func (m *MockFormService) Fetch(ctx context.Context, sessionID string) (domain.SessionRecord, bool, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(domain.SessionRecord), args.Bool(1), args.Error(2)
}

func (m *MockFormService) Finalize(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
