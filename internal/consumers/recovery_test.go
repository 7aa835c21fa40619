package consumers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/consumers"
	"github.com/danielsotopino/api-transbank/internal/mocks"
	"github.com/danielsotopino/api-transbank/internal/publishers"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/pkg/mq"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubConsumer delivers a single body to the handler it is given.
type stubConsumer struct {
	body     []byte
	queue    string
	prefetch int
	result   error
}

func (s *stubConsumer) Consume(ctx context.Context, prefetch int, queue string, handler mq.Handle) error {
	s.prefetch = prefetch
	s.queue = queue
	s.result = handler(ctx, s.body)
	return nil
}

func TestRecoveryConsumer_Consume(t *testing.T) {
	cmd := service.RecoverAuthorizationCommand{
		Username: "alice",
		Response: oneclick.TransactionResponse{ParentBuyOrder: "PARENT-1"},
	}
	body, err := json.Marshal(cmd)
	require.NoError(t, err)

	cfg := &config.Config{RabbitMQ: mq.Config{Prefetch: 5}}

	t.Run("Acknowledges a recovered authorization", func(t *testing.T) {
		svc := &mocks.RecoveryService{}
		svc.On("RecoverAuthorization", mock.Anything, mock.MatchedBy(func(c service.RecoverAuthorizationCommand) bool {
			return c.Response.ParentBuyOrder == "PARENT-1" && c.Username == "alice"
		})).Return(nil)
		stub := &stubConsumer{body: body}

		require.NoError(t, consumers.NewRecoveryConsumer(svc, stub, cfg, zap.NewNop()).Consume(context.Background()))

		assert.NoError(t, stub.result)
		assert.Equal(t, publishers.RecoveryQueue, stub.queue)
		assert.Equal(t, 5, stub.prefetch)
		svc.AssertExpectations(t)
	})

	t.Run("Store failures are requeued", func(t *testing.T) {
		svc := &mocks.RecoveryService{}
		svc.On("RecoverAuthorization", mock.Anything, mock.Anything).
			Return(service.NewServiceError(constants.ErrCodeDatabaseError, errors.New("db down")))
		stub := &stubConsumer{body: body}

		require.NoError(t, consumers.NewRecoveryConsumer(svc, stub, cfg, zap.NewNop()).Consume(context.Background()))

		assert.Error(t, stub.result)
		assert.True(t, mq.ShouldRequeue(stub.result))
	})

	t.Run("Other failures are dead-lettered", func(t *testing.T) {
		svc := &mocks.RecoveryService{}
		svc.On("RecoverAuthorization", mock.Anything, mock.Anything).
			Return(errors.New("unexpected"))
		stub := &stubConsumer{body: body}

		require.NoError(t, consumers.NewRecoveryConsumer(svc, stub, cfg, zap.NewNop()).Consume(context.Background()))

		assert.Error(t, stub.result)
		assert.False(t, mq.ShouldRequeue(stub.result))
	})

	t.Run("Malformed bodies are dead-lettered", func(t *testing.T) {
		svc := &mocks.RecoveryService{}
		stub := &stubConsumer{body: []byte("{")}

		require.NoError(t, consumers.NewRecoveryConsumer(svc, stub, cfg, zap.NewNop()).Consume(context.Background()))

		assert.Error(t, stub.result)
		assert.False(t, mq.ShouldRequeue(stub.result))
		svc.AssertNotCalled(t, "RecoverAuthorization", mock.Anything, mock.Anything)
	})
}
