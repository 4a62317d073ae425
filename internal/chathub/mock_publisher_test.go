package chathub_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"roomrelay/backend/internal/storage"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, event storage.MirroredEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
