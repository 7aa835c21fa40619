package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockTxKey struct{}

// TxManager runs fn inline. A non-nil error configured on WithTx is returned
// before fn runs, as if the transaction could not begin.
type TxManager struct {
	mock.Mock
}

func (t *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := t.Called(ctx, fn)

	if args.Error(0) != nil {
		return args.Error(0)
	}

	return fn(context.WithValue(ctx, mockTxKey{}, true))
}

// InTx matches contexts handed out by TxManager.WithTx, for use with mock.MatchedBy.
func InTx(ctx context.Context) bool {
	inTx, _ := ctx.Value(mockTxKey{}).(bool)
	return inTx
}
