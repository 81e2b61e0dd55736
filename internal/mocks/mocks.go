package mocks

import (
	"context"

	"github.com/brettbedarf/memvfs"
	"github.com/stretchr/testify/mock"
)

// MockStatInvalidator implements memvfs.StatInvalidator for testing across packages
type MockStatInvalidator struct {
	mock.Mock
}

func (m *MockStatInvalidator) Invalidate(url string) {
	m.Called(url)
}

func (m *MockStatInvalidator) Clear() {
	m.Called()
}

var _ memvfs.StatInvalidator = (*MockStatInvalidator)(nil)

// MockContentProvider implements memvfs.ContentProvider for testing across packages
type MockContentProvider struct {
	mock.Mock
}

func (m *MockContentProvider) Content(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(context.Context) []byte); ok {
		return fn(ctx), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var _ memvfs.ContentProvider = (*MockContentProvider)(nil)
