package testutil

import (
	"context"

	"aircover/pkg/domain"
	"aircover/pkg/requestcontext"
)

// CallerContext returns a context carrying an authenticated participant,
// the state the participant middleware leaves behind for service calls.
func CallerContext(ctx context.Context, address domain.Address) context.Context {
	return requestcontext.WithCaller(ctx, address)
}

// PayingContext returns a context carrying a caller and an attached
// payment, the typical state of an authenticated paying request.
func PayingContext(ctx context.Context, address domain.Address, units domain.Units) context.Context {
	return requestcontext.WithPayment(requestcontext.WithCaller(ctx, address), units)
}
