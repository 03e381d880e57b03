package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	auditsvc "github.com/harborwell/shipstock/audit"
	"github.com/harborwell/shipstock/config"
	"github.com/harborwell/shipstock/model"
	"github.com/harborwell/shipstock/stock"
	"github.com/harborwell/shipstock/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*stock.Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger, _ := zap.NewDevelopment()
	return stock.NewService(db, nil, logger), db
}

func seedInbound(t *testing.T, db *gorm.DB, shipID, itemID int64, qty int) *model.InboundRecord {
	t.Helper()
	rec := &model.InboundRecord{
		BatchNo:  "B-1",
		ShipID:   shipID,
		ItemID:   itemID,
		Quantity: qty,
		Status:   model.InboundPending,
	}
	require.NoError(t, db.Create(rec).Error)
	return rec
}

func seedLine(t *testing.T, db *gorm.DB, shipID, itemID int64, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&model.InventoryLine{ShipID: shipID, ItemID: itemID, Quantity: qty}).Error)
}

func lineQty(t *testing.T, db *gorm.DB, shipID, itemID int64) int {
	t.Helper()
	var line model.InventoryLine
	err := db.Where("ship_id = ? AND item_id = ?", shipID, itemID).First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return -1 // no line
	}
	require.NoError(t, err)
	return line.Quantity
}

func TestConfirmInbound_CreatesLine(t *testing.T) {
	svc, db := newService(t)
	rec := seedInbound(t, db, 1, 1, 20)

	res, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 20, Confirmer: "chief",
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadyConfirmed)
	assert.Equal(t, model.InboundConfirmed, res.Record.Status)
	require.NotNil(t, res.Record.ActualQuantity)
	assert.Equal(t, 20, *res.Record.ActualQuantity)
	assert.NotNil(t, res.Record.ConfirmedAt)

	assert.Equal(t, 20, lineQty(t, db, 1, 1))
}

func TestConfirmInbound_AddsToExistingLine(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 1, 5)
	rec := seedInbound(t, db, 1, 1, 20)

	// Received quantity may differ from the requested batch quantity.
	_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 18,
	})
	require.NoError(t, err)
	assert.Equal(t, 23, lineQty(t, db, 1, 1))
}

func TestConfirmInbound_Idempotent(t *testing.T) {
	svc, db := newService(t)
	rec := seedInbound(t, db, 1, 1, 20)

	first, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 20,
	})
	require.NoError(t, err)
	assert.False(t, first.AlreadyConfirmed)

	second, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 20,
	})
	require.NoError(t, err)
	assert.True(t, second.AlreadyConfirmed)

	// Credited exactly once.
	assert.Equal(t, 20, lineQty(t, db, 1, 1))
}

func TestConfirmInbound_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: 999, ActualQuantity: 1,
	})
	assert.ErrorIs(t, err, stock.ErrNotFound)
}

func TestConfirmInbound_BadQuantity(t *testing.T) {
	svc, db := newService(t)
	rec := seedInbound(t, db, 1, 1, 20)

	for _, qty := range []int{0, -5} {
		_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
			InboundID: rec.ID, ActualQuantity: qty,
		})
		assert.ErrorIs(t, err, stock.ErrBadQuantity)
	}
	assert.Equal(t, -1, lineQty(t, db, 1, 1))
}

func TestCancelInbound_RoundTrip(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 1, 5)
	rec := seedInbound(t, db, 1, 1, 20)

	_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 20,
	})
	require.NoError(t, err)
	require.Equal(t, 25, lineQty(t, db, 1, 1))

	canceled, err := svc.CancelInbound(context.Background(), stock.CancelInboundInput{
		InboundID: rec.ID, Remark: "wrong batch",
	})
	require.NoError(t, err)
	assert.Equal(t, model.InboundPending, canceled.Status)
	assert.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, "wrong batch", canceled.CancelRemark)

	// Ledger restored to its pre-confirm value.
	assert.Equal(t, 5, lineQty(t, db, 1, 1))

	// The record is re-confirmable after cancellation.
	res, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 19,
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadyConfirmed)
	assert.Equal(t, 24, lineQty(t, db, 1, 1))
}

// Re-confirming a canceled inbound clears the cancel metadata so the record
// reads as a plain confirmation again.
func TestConfirmInbound_ClearsCancelMetadata(t *testing.T) {
	svc, db := newService(t)
	rec := seedInbound(t, db, 1, 1, 20)

	_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 20,
	})
	require.NoError(t, err)
	_, err = svc.CancelInbound(context.Background(), stock.CancelInboundInput{
		InboundID: rec.ID, Remark: "damaged crates",
	})
	require.NoError(t, err)

	res, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 18,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Record.CanceledAt)
	assert.Empty(t, res.Record.CancelRemark)

	var after model.InboundRecord
	require.NoError(t, db.First(&after, rec.ID).Error)
	assert.Equal(t, model.InboundConfirmed, after.Status)
	assert.Nil(t, after.CanceledAt)
	assert.Empty(t, after.CancelRemark)
}

func TestCancelInbound_BadStatus(t *testing.T) {
	svc, db := newService(t)
	rec := seedInbound(t, db, 1, 1, 20) // still PENDING

	_, err := svc.CancelInbound(context.Background(), stock.CancelInboundInput{InboundID: rec.ID})
	assert.ErrorIs(t, err, stock.ErrBadStatus)
}

func TestCancelInbound_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CancelInbound(context.Background(), stock.CancelInboundInput{InboundID: 404})
	assert.ErrorIs(t, err, stock.ErrNotFound)
}

func TestCancelInbound_Underflow(t *testing.T) {
	svc, db := newService(t)
	rec := seedInbound(t, db, 1, 1, 10)

	_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 10,
	})
	require.NoError(t, err)

	// A claim consumes most of the stock this inbound contributed.
	_, err = svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 1, Quantity: 7, Claimer: "bosun",
	})
	require.NoError(t, err)
	require.Equal(t, 3, lineQty(t, db, 1, 1))

	_, err = svc.CancelInbound(context.Background(), stock.CancelInboundInput{InboundID: rec.ID})
	assert.ErrorIs(t, err, stock.ErrUnderflow)

	// Rejection leaves both the ledger and the record untouched.
	assert.Equal(t, 3, lineQty(t, db, 1, 1))
	var after model.InboundRecord
	require.NoError(t, db.First(&after, rec.ID).Error)
	assert.Equal(t, model.InboundConfirmed, after.Status)
}

func TestClaimItem_DecrementsAndRecords(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 2, 10)

	rec, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 2, Quantity: 4, Claimer: "cook", Remark: "galley restock",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ClaimClaimed, rec.Status)
	assert.Equal(t, "cook", rec.Claimer)
	assert.Equal(t, 6, lineQty(t, db, 1, 2))
}

func TestClaimItem_LineMissing(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 99, Quantity: 1, Claimer: "cook",
	})
	assert.ErrorIs(t, err, stock.ErrLineMissing)
}

func TestClaimItem_Insufficient(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 2, 3)

	_, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 2, Quantity: 4, Claimer: "cook",
	})
	assert.ErrorIs(t, err, stock.ErrInsufficientStock)
	assert.Equal(t, 3, lineQty(t, db, 1, 2))
}

func TestClaimItem_BadQuantity(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 2, 3)

	for _, qty := range []int{0, -1} {
		_, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
			ShipID: 1, ItemID: 2, Quantity: qty, Claimer: "cook",
		})
		assert.ErrorIs(t, err, stock.ErrBadQuantity)
	}
}

func TestCancelClaim_RestoresQuantity(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 2, 10)

	claim, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 2, Quantity: 4, Claimer: "cook",
	})
	require.NoError(t, err)
	require.Equal(t, 6, lineQty(t, db, 1, 2))

	canceled, err := svc.CancelClaim(context.Background(), stock.CancelClaimInput{
		ClaimID: claim.ID, Remark: "returned unused",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ClaimCanceled, canceled.Status)
	assert.NotNil(t, canceled.CanceledAt)

	// Conservation: exactly the pre-claim value.
	assert.Equal(t, 10, lineQty(t, db, 1, 2))
}

func TestCancelClaim_Terminal(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 2, 10)

	claim, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
		ShipID: 1, ItemID: 2, Quantity: 4, Claimer: "cook",
	})
	require.NoError(t, err)

	_, err = svc.CancelClaim(context.Background(), stock.CancelClaimInput{ClaimID: claim.ID})
	require.NoError(t, err)

	// CANCELED is terminal; a second cancel must not double-credit.
	_, err = svc.CancelClaim(context.Background(), stock.CancelClaimInput{ClaimID: claim.ID})
	assert.ErrorIs(t, err, stock.ErrBadStatus)
	assert.Equal(t, 10, lineQty(t, db, 1, 2))
}

func TestCancelClaim_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CancelClaim(context.Background(), stock.CancelClaimInput{ClaimID: 404})
	assert.ErrorIs(t, err, stock.ErrNotFound)
}

// Full lifecycle: confirm → claim → cancel claim → cancel inbound returns the
// ledger to zero and the inbound record to PENDING.
func TestFullLifecycle(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	rec := seedInbound(t, db, 1, 1, 20)

	_, err := svc.ConfirmInbound(ctx, stock.ConfirmInboundInput{InboundID: rec.ID, ActualQuantity: 20})
	require.NoError(t, err)
	require.Equal(t, 20, lineQty(t, db, 1, 1))

	claim, err := svc.ClaimItem(ctx, stock.ClaimItemInput{ShipID: 1, ItemID: 1, Quantity: 5, Claimer: "A"})
	require.NoError(t, err)
	require.Equal(t, 15, lineQty(t, db, 1, 1))

	_, err = svc.CancelClaim(ctx, stock.CancelClaimInput{ClaimID: claim.ID})
	require.NoError(t, err)
	require.Equal(t, 20, lineQty(t, db, 1, 1))

	canceled, err := svc.CancelInbound(ctx, stock.CancelInboundInput{InboundID: rec.ID})
	require.NoError(t, err)
	assert.Equal(t, model.InboundPending, canceled.Status)
	assert.Equal(t, 0, lineQty(t, db, 1, 1))
}

// The ledger never goes negative for any accepted operation sequence.
func TestNonNegativity(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	seedLine(t, db, 1, 1, 5)

	claims := []int{3, 3, 2, 1, 4}
	for _, q := range claims {
		_, err := svc.ClaimItem(ctx, stock.ClaimItemInput{ShipID: 1, ItemID: 1, Quantity: q, Claimer: "x"})
		if err != nil {
			assert.ErrorIs(t, err, stock.ErrInsufficientStock)
		}
		qty := lineQty(t, db, 1, 1)
		assert.GreaterOrEqual(t, qty, 0)
	}
}

// Two simultaneous confirms yield exactly one CONFIRMED transition and one
// ledger increment; the loser sees idempotent success or ErrAlreadyConfirmed.
func TestConcurrentConfirm(t *testing.T) {
	svc, db := newService(t)
	rec := seedInbound(t, db, 1, 1, 20)

	const workers = 4
	var wg sync.WaitGroup
	results := make([]error, workers)
	alreadies := make([]bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
				InboundID: rec.ID, ActualQuantity: 20,
			})
			results[i] = err
			if err == nil {
				alreadies[i] = res.AlreadyConfirmed
			}
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < workers; i++ {
		if results[i] == nil {
			if !alreadies[i] {
				fresh++
			}
		} else {
			assert.ErrorIs(t, results[i], stock.ErrAlreadyConfirmed)
		}
	}
	assert.Equal(t, 1, fresh, "exactly one confirm applies the ledger change")
	assert.Equal(t, 20, lineQty(t, db, 1, 1))
}

// Concurrent claims cannot overdraw the line: accepted claims sum to at most
// the initial stock and the remainder matches exactly.
func TestConcurrentClaims(t *testing.T) {
	svc, db := newService(t)
	seedLine(t, db, 1, 1, 10)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClaimItem(context.Background(), stock.ClaimItemInput{
				ShipID: 1, ItemID: 1, Quantity: 3, Claimer: "crew",
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, stock.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, accepted*3, 10)
	assert.Equal(t, 10-accepted*3, lineQty(t, db, 1, 1))
}

func TestConfirmInbound_WritesAudit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger, _ := zap.NewDevelopment()
	aud := auditsvc.New(db, config.AuditConfig{}, logger)
	svc := stock.NewService(db, aud, logger)

	rec := seedInbound(t, db, 1, 1, 20)
	_, err := svc.ConfirmInbound(context.Background(), stock.ConfirmInboundInput{
		InboundID: rec.ID, ActualQuantity: 20, Operator: "chief", TraceID: "t-1",
	})
	require.NoError(t, err)
	aud.Stop(context.Background())

	var logs []model.AuditLog
	db.Where("event_type = ?", model.EventConfirmInbound).Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "chief", logs[0].Operator)
	assert.Equal(t, "t-1", logs[0].TraceID)
}

// A duplicate confirm retry must not produce a second audit entry.
func TestConfirmInbound_IdempotentNoAudit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger, _ := zap.NewDevelopment()
	aud := auditsvc.New(db, config.AuditConfig{}, logger)
	svc := stock.NewService(db, aud, logger)

	rec := seedInbound(t, db, 1, 1, 20)
	ctx := context.Background()
	_, err := svc.ConfirmInbound(ctx, stock.ConfirmInboundInput{InboundID: rec.ID, ActualQuantity: 20})
	require.NoError(t, err)
	_, err = svc.ConfirmInbound(ctx, stock.ConfirmInboundInput{InboundID: rec.ID, ActualQuantity: 20})
	require.NoError(t, err)
	aud.Stop(ctx)

	var count int64
	db.Model(&model.AuditLog{}).Where("event_type = ?", model.EventConfirmInbound).Count(&count)
	assert.Equal(t, int64(1), count)
}
