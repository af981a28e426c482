package heldsale_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cashdesk/cashdesk/internal/heldsale"
)

func TestCleanerPurgesOnTick(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doomed := hold(t, f, "shop-1")
	f.clk.Advance(heldsale.DefaultRetention + time.Minute)
	fresh := hold(t, f, "shop-1")

	done := make(chan error, 1)
	go func() { done <- heldsale.NewCleaner(f.svc, 10*time.Millisecond).Run(ctx) }()

	require.Eventually(t, func() bool {
		list, err := f.svc.Active(context.Background(), f.sess, "shop-1")
		if err != nil || len(list) != 1 {
			return false
		}
		if _, err := f.svc.Get(context.Background(), f.sess, doomed.ID); err == nil {
			return false
		}
		return list[0].ID == fresh.ID
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("el cleaner no paró con el contexto cancelado")
	}
}
