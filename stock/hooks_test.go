package stock_test

import (
	"context"
	"testing"

	"github.com/harborwell/shipstock/hook"
	"github.com/harborwell/shipstock/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_FireAfterCommit(t *testing.T) {
	svc, db := newService(t)
	center := hook.NewCenter()
	svc.SetHooks(center)

	var events []string
	var lastEv hook.StockEvent
	record := func(ctx context.Context, event string, data interface{}) (interface{}, error) {
		events = append(events, event)
		lastEv = data.(hook.StockEvent)
		return data, nil
	}
	center.Register(hook.OnInboundConfirmed, 0, "t", record)
	center.Register(hook.OnItemClaimed, 0, "t", record)

	rec := seedInbound(t, db, 1, 2, 30)
	_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 30, Operator: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, []string{hook.OnInboundConfirmed}, events)
	assert.Equal(t, int64(1), lastEv.ShipID)
	assert.Equal(t, 30, lastEv.Quantity)

	_, err = svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 2, Quantity: 5, Claimer: "bob", Operator: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{hook.OnInboundConfirmed, hook.OnItemClaimed}, events)
	assert.Equal(t, 5, lastEv.Quantity)
}

func TestHooks_NotFiredOnFailure(t *testing.T) {
	svc, db := newService(t)
	center := hook.NewCenter()
	svc.SetHooks(center)

	fired := false
	center.Register(hook.OnItemClaimed, 0, "t", func(ctx context.Context, event string, data interface{}) (interface{}, error) {
		fired = true
		return data, nil
	})

	seedLine(t, db, 1, 2, 3)
	_, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 2, Quantity: 10, Claimer: "bob",
	})
	require.Error(t, err)
	assert.False(t, fired)
}

func TestHooks_IdempotentConfirmDoesNotRefire(t *testing.T) {
	svc, db := newService(t)
	center := hook.NewCenter()
	svc.SetHooks(center)

	n := 0
	center.Register(hook.OnInboundConfirmed, 0, "t", func(ctx context.Context, event string, data interface{}) (interface{}, error) {
		n++
		return data, nil
	})

	rec := seedInbound(t, db, 1, 2, 30)
	for i := 0; i < 3; i++ {
		_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
			InboundID: rec.ID, ActualQuantity: 30,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, n)
}
