package testutil

import (
	"context"
	"time"

	"github.com/wrenchworks/docdesk/internal/types"
)

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, "usr_test")
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}

// FixedClock returns a clock function that always reports t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
