package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashdesk/cashdesk/internal/store/core"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Session{UserID: "u1", TenantID: "t1"}.Validate())
	require.ErrorIs(t, Session{UserID: "u1"}.Validate(), core.ErrInvalid)
	require.ErrorIs(t, Session{TenantID: "t1"}.Validate(), core.ErrInvalid)
	require.ErrorIs(t, Session{UserID: "  ", TenantID: "t1"}.Validate(), core.ErrInvalid)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	want := Session{UserID: "u1", TenantID: "t1"}
	ctx := ToContext(context.Background(), want)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, want, got)
}
