package mocks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
)

type KeyGuard struct {
	mock.Mock
	released atomic.Int32
}

func (m *KeyGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, key, ttl)
	if args.Error(0) != nil {
		return nil, args.Error(0)
	}
	return func() { m.released.Add(1) }, nil
}

// Released counts release calls made by holders.
func (m *KeyGuard) Released() int {
	return int(m.released.Load())
}
