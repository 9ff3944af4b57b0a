package usecase

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockNotificationWorker is a mock implementation of INotificationWorker
type MockNotificationWorker struct {
	mock.Mock
}

func (m *MockNotificationWorker) Submit(task NotificationTask) error {
	args := m.Called(task)
	return args.Error(0)
}

func (m *MockNotificationWorker) Stop() {
	m.Called()
}

// MockSessionCache is a mock implementation of SessionCache
type MockSessionCache struct {
	mock.Mock
}

func (m *MockSessionCache) Add(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockSessionCache) Remove(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockSessionCache) InvalidateUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
