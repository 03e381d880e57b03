package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harborwell/shipstock/audit"
	"github.com/harborwell/shipstock/hook"
	"github.com/harborwell/shipstock/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the transactional boundary for every ledger mutation. Each
// operation couples a record status transition with its inventory adjustment
// in one transaction; quantity writes are conditional updates checked via
// RowsAffected, so concurrent mutations on the same (ship, item) or the same
// record serialize instead of double-counting or overdrawing.
type Service struct {
	db     *gorm.DB
	audit  *audit.Service
	hooks  *hook.Center
	logger *zap.Logger
}

// NewService creates a stock Service. auditSvc may be nil (audit disabled).
func NewService(db *gorm.DB, auditSvc *audit.Service, logger *zap.Logger) *Service {
	return &Service{db: db, audit: auditSvc, logger: logger}
}

// SetHooks attaches a hook center; mutations fire events after commit.
func (s *Service) SetHooks(h *hook.Center) {
	s.hooks = h
}

func (s *Service) fire(ctx context.Context, event string, ev hook.StockEvent) {
	if s.hooks == nil {
		return
	}
	if _, err := s.hooks.Trigger(ctx, event, ev); err != nil && !errors.Is(err, hook.ErrInterrupt) {
		s.logger.Warn("stock hook failed", zap.String("event", event), zap.Error(err))
	}
}

// ConfirmInboundInput carries the confirm-inbound request.
type ConfirmInboundInput struct {
	InboundID      int64
	ActualQuantity int // received quantity, may differ from the batch quantity
	Confirmer      string
	Remark         string
	Operator       string
	TraceID        string
}

// CancelInboundInput carries the cancel-inbound request.
type CancelInboundInput struct {
	InboundID int64
	Remark    string
	Operator  string
	TraceID   string
}

// ClaimItemInput carries the claim request.
type ClaimItemInput struct {
	ShipID   int64
	ItemID   int64
	Quantity int
	Claimer  string
	Remark   string
	Operator string
	TraceID  string
}

// CancelClaimInput carries the cancel-claim request.
type CancelClaimInput struct {
	ClaimID  int64
	Remark   string
	Operator string
	TraceID  string
}

// ConfirmResult reports the outcome of a confirm call.
type ConfirmResult struct {
	Record           *model.InboundRecord
	AlreadyConfirmed bool // duplicate retry observed a confirmed record; no ledger change
}

// forUpdate adds a SELECT ... FOR UPDATE row lock. SQLite has no row locks;
// its single-connection pool already serializes writers, and the conditional
// updates below re-validate every precondition regardless.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ConfirmInbound confirms a pending inbound record and credits the ledger.
// Confirming an already-confirmed record is an idempotent success; losing the
// race at the conditional update is ErrAlreadyConfirmed.
func (s *Service) ConfirmInbound(ctx context.Context, in ConfirmInboundInput) (*ConfirmResult, error) {
	if in.ActualQuantity <= 0 {
		return nil, ErrBadQuantity
	}

	var rec model.InboundRecord
	already := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", in.InboundID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if rec.Status == model.InboundConfirmed {
			already = true
			return nil
		}
		if !rec.Status.CanTransition(model.InboundConfirmed) {
			return ErrBadStatus
		}

		now := time.Now()
		res := tx.Model(&model.InboundRecord{}).
			Where("id = ? AND status <> ?", rec.ID, model.InboundConfirmed).
			Updates(map[string]interface{}{
				"status":          model.InboundConfirmed,
				"actual_quantity": in.ActualQuantity,
				"confirmer":       in.Confirmer,
				"confirm_remark":  in.Remark,
				"confirmed_at":    now,
				"canceled_at":     nil,
				"cancel_remark":   "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent confirm slipped in between the read and the guard.
			return ErrAlreadyConfirmed
		}

		if err := upsertLineAdd(tx, rec.ShipID, rec.ItemID, in.ActualQuantity); err != nil {
			return err
		}

		rec.Status = model.InboundConfirmed
		rec.ActualQuantity = &in.ActualQuantity
		rec.Confirmer = in.Confirmer
		rec.ConfirmRemark = in.Remark
		rec.ConfirmedAt = &now
		rec.CanceledAt = nil
		rec.CancelRemark = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !already {
		s.logAudit(audit.Entry{
			TraceID:   in.TraceID,
			EventType: model.EventConfirmInbound,
			Operator:  in.Operator,
			Object:    fmt.Sprintf("inbound:%d", rec.ID),
			Quantity:  &in.ActualQuantity,
			Note:      in.Remark,
			Detail:    map[string]interface{}{"batchNo": rec.BatchNo, "shipId": rec.ShipID, "itemId": rec.ItemID},
		})
		s.logger.Info("inbound confirmed",
			zap.Int64("inbound_id", rec.ID),
			zap.String("batch_no", rec.BatchNo),
			zap.Int("actual_quantity", in.ActualQuantity))
		s.fire(ctx, hook.OnInboundConfirmed, hook.StockEvent{
			ShipID: rec.ShipID, ItemID: rec.ItemID, Quantity: in.ActualQuantity, Operator: in.Operator,
		})
	}
	return &ConfirmResult{Record: &rec, AlreadyConfirmed: already}, nil
}

// CancelInbound reverses a confirmed inbound: the ledger gives back the
// actual quantity and the record returns to PENDING, ready to be re-confirmed.
// Rejected with ErrUnderflow when intervening claims already consumed the
// stock this inbound contributed.
func (s *Service) CancelInbound(ctx context.Context, in CancelInboundInput) (*model.InboundRecord, error) {
	var rec model.InboundRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", in.InboundID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !rec.Status.CanTransition(model.InboundPending) {
			return ErrBadStatus
		}
		actual := 0
		if rec.ActualQuantity != nil {
			actual = *rec.ActualQuantity
		}

		now := time.Now()
		res := tx.Model(&model.InboundRecord{}).
			Where("id = ? AND status = ?", rec.ID, model.InboundConfirmed).
			Updates(map[string]interface{}{
				"status":        model.InboundPending,
				"canceled_at":   now,
				"cancel_remark": in.Remark,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBadStatus
		}

		// The guard keeps the ledger non-negative; zero rows means the line
		// is missing or holds less than this inbound contributed.
		res = tx.Model(&model.InventoryLine{}).
			Where("ship_id = ? AND item_id = ? AND quantity >= ?", rec.ShipID, rec.ItemID, actual).
			Update("quantity", gorm.Expr("quantity - ?", actual))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUnderflow
		}

		rec.Status = model.InboundPending
		rec.CanceledAt = &now
		rec.CancelRemark = in.Remark
		return nil
	})
	if err != nil {
		return nil, err
	}

	actual := 0
	if rec.ActualQuantity != nil {
		actual = *rec.ActualQuantity
	}
	s.logAudit(audit.Entry{
		TraceID:   in.TraceID,
		EventType: model.EventCancelInbound,
		Operator:  in.Operator,
		Object:    fmt.Sprintf("inbound:%d", rec.ID),
		Quantity:  &actual,
		Note:      in.Remark,
		Detail:    map[string]interface{}{"batchNo": rec.BatchNo, "shipId": rec.ShipID, "itemId": rec.ItemID},
	})
	s.logger.Info("inbound canceled",
		zap.Int64("inbound_id", rec.ID),
		zap.String("batch_no", rec.BatchNo))
	s.fire(ctx, hook.OnInboundCanceled, hook.StockEvent{
		ShipID: rec.ShipID, ItemID: rec.ItemID, Quantity: actual, Operator: in.Operator,
	})
	return &rec, nil
}

// ClaimItem withdraws stock for a crew member. The decrement is a single
// conditional update guarded by quantity >= requested, so two simultaneous
// claims on the same line can never overdraw it.
func (s *Service) ClaimItem(ctx context.Context, in ClaimItemInput) (*model.ClaimRecord, error) {
	if in.Quantity <= 0 {
		return nil, ErrBadQuantity
	}

	var rec model.ClaimRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line model.InventoryLine
		if err := forUpdate(tx).
			Where("ship_id = ? AND item_id = ?", in.ShipID, in.ItemID).
			First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLineMissing
			}
			return err
		}

		res := tx.Model(&model.InventoryLine{}).
			Where("ship_id = ? AND item_id = ? AND quantity >= ?", in.ShipID, in.ItemID, in.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", in.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		rec = model.ClaimRecord{
			ShipID:      in.ShipID,
			ItemID:      in.ItemID,
			Quantity:    in.Quantity,
			Claimer:     in.Claimer,
			Status:      model.ClaimClaimed,
			ClaimRemark: in.Remark,
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(audit.Entry{
		TraceID:   in.TraceID,
		EventType: model.EventClaimItem,
		Operator:  in.Operator,
		Object:    fmt.Sprintf("claim:%d", rec.ID),
		Quantity:  &in.Quantity,
		Note:      in.Remark,
		Detail:    map[string]interface{}{"shipId": in.ShipID, "itemId": in.ItemID, "claimer": in.Claimer},
	})
	s.logger.Info("item claimed",
		zap.Int64("claim_id", rec.ID),
		zap.Int64("ship_id", in.ShipID),
		zap.Int64("item_id", in.ItemID),
		zap.Int("quantity", in.Quantity))
	s.fire(ctx, hook.OnItemClaimed, hook.StockEvent{
		ShipID: in.ShipID, ItemID: in.ItemID, Quantity: in.Quantity, Operator: in.Operator,
	})
	return &rec, nil
}

// CancelClaim voids a claim and restores its quantity to the ledger. The
// add-back can only increase the quantity, so no underflow check is needed.
func (s *Service) CancelClaim(ctx context.Context, in CancelClaimInput) (*model.ClaimRecord, error) {
	var rec model.ClaimRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", in.ClaimID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !rec.Status.CanTransition(model.ClaimCanceled) {
			return ErrBadStatus
		}

		now := time.Now()
		res := tx.Model(&model.ClaimRecord{}).
			Where("id = ? AND status = ?", rec.ID, model.ClaimClaimed).
			Updates(map[string]interface{}{
				"status":        model.ClaimCanceled,
				"canceled_at":   now,
				"cancel_remark": in.Remark,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBadStatus
		}

		if err := upsertLineAdd(tx, rec.ShipID, rec.ItemID, rec.Quantity); err != nil {
			return err
		}

		rec.Status = model.ClaimCanceled
		rec.CanceledAt = &now
		rec.CancelRemark = in.Remark
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(audit.Entry{
		TraceID:   in.TraceID,
		EventType: model.EventCancelClaim,
		Operator:  in.Operator,
		Object:    fmt.Sprintf("claim:%d", rec.ID),
		Quantity:  &rec.Quantity,
		Note:      in.Remark,
		Detail:    map[string]interface{}{"shipId": rec.ShipID, "itemId": rec.ItemID, "claimer": rec.Claimer},
	})
	s.logger.Info("claim canceled", zap.Int64("claim_id", rec.ID))
	s.fire(ctx, hook.OnClaimCanceled, hook.StockEvent{
		ShipID: rec.ShipID, ItemID: rec.ItemID, Quantity: rec.Quantity, Operator: in.Operator,
	})
	return &rec, nil
}

// upsertLineAdd credits quantity to the (ship, item) ledger line, creating it
// on first confirmation.
func upsertLineAdd(tx *gorm.DB, shipID, itemID int64, qty int) error {
	line := model.InventoryLine{ShipID: shipID, ItemID: itemID, Quantity: qty}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ship_id"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", qty),
		}),
	}).Create(&line).Error
}

// logAudit appends a best-effort audit entry after a committed mutation.
func (s *Service) logAudit(entry audit.Entry) {
	if s.audit == nil {
		return
	}
	s.audit.Log(entry)
}
