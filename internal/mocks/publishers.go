package mocks

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/stretchr/testify/mock"
)

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *EventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type RecoveryPublisher struct {
	mock.Mock
}

func (m *RecoveryPublisher) Publish(ctx context.Context, cmd service.RecoverAuthorizationCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MQPublisher struct {
	mock.Mock
}

func (m *MQPublisher) Publish(ctx context.Context, exchange string, routingKey string, messageID string, body []byte) error {
	args := m.Called(ctx, exchange, routingKey, messageID, body)
	return args.Error(0)
}

func (m *MQPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
