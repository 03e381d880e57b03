package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/audit"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/model"
	"github.com/harborwell/shipstock/stock"
	"gorm.io/gorm"
)

// InboundHandler handles inbound shipment endpoints. The confirm/cancel
// mutations delegate to stock.Service; batch creation and edits of
// still-pending records are plain CRUD.
type InboundHandler struct {
	db    *gorm.DB
	svc   *stock.Service
	audit *audit.Service
}

// NewInboundHandler creates an InboundHandler. auditSvc may be nil.
func NewInboundHandler(db *gorm.DB, svc *stock.Service, auditSvc *audit.Service) *InboundHandler {
	return &InboundHandler{db: db, svc: svc, audit: auditSvc}
}

type confirmInboundRequest struct {
	InboundID      int64  `json:"inboundId" binding:"required"`
	ActualQuantity int    `json:"actualQuantity"`
	Confirmer      string `json:"confirmer"`
	Remark         string `json:"remark"`
}

// Confirm handles POST /confirmInbound. Confirming a record that is already
// confirmed is an idempotent success.
func (h *InboundHandler) Confirm(c *gin.Context) {
	var req confirmInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.ActualQuantity <= 0 {
		fail(c, http.StatusBadRequest, CodeBadQty, "actualQuantity must be positive")
		return
	}
	confirmer := req.Confirmer
	if confirmer == "" {
		confirmer = mw.GetUsername(c)
	}

	res, err := h.svc.ConfirmInbound(c.Request.Context(), stock.ConfirmInboundInput{
		InboundID:      req.InboundID,
		ActualQuantity: req.ActualQuantity,
		Confirmer:      confirmer,
		Remark:         req.Remark,
		Operator:       mw.GetUsername(c),
		TraceID:        mw.GetTraceID(c),
	})
	if err != nil {
		writeStockError(c, err)
		return
	}
	ok(c, gin.H{"inbound": res.Record, "alreadyConfirmed": res.AlreadyConfirmed})
}

type cancelInboundRequest struct {
	InboundID int64  `json:"inboundId" binding:"required"`
	Remark    string `json:"remark"`
}

// Cancel handles POST /cancelInbound. Only a confirmed record can be
// canceled; it returns to PENDING and the ledger gives back its quantity.
func (h *InboundHandler) Cancel(c *gin.Context) {
	var req cancelInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	rec, err := h.svc.CancelInbound(c.Request.Context(), stock.CancelInboundInput{
		InboundID: req.InboundID,
		Remark:    req.Remark,
		Operator:  mw.GetUsername(c),
		TraceID:   mw.GetTraceID(c),
	})
	if err != nil {
		writeStockError(c, err)
		return
	}
	ok(c, gin.H{"inbound": rec})
}

type createInboundRequest struct {
	BatchNo string `json:"batchNo" binding:"required,max=64"`
	ShipID  int64  `json:"shipId" binding:"required"`
	Items   []struct {
		ItemID   int64 `json:"itemId" binding:"required"`
		Quantity int   `json:"quantity" binding:"required"`
	} `json:"items" binding:"required,min=1"`
}

// Create handles POST /createInbound: registers a batch of pending records.
func (h *InboundHandler) Create(c *gin.Context) {
	var req createInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			fail(c, http.StatusBadRequest, CodeBadQty, "quantity must be positive")
			return
		}
	}
	if err := h.db.First(&model.Ship{}, req.ShipID).Error; err != nil {
		fail(c, http.StatusNotFound, CodeNotFound, "ship not found")
		return
	}

	records := make([]model.InboundRecord, 0, len(req.Items))
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		for _, it := range req.Items {
			if err := tx.First(&model.Item{}, it.ItemID).Error; err != nil {
				return fmt.Errorf("item %d not found", it.ItemID)
			}
			rec := model.InboundRecord{
				BatchNo:  req.BatchNo,
				ShipID:   req.ShipID,
				ItemID:   it.ItemID,
				Quantity: it.Quantity,
				Status:   model.InboundPending,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if txErr != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, txErr.Error())
		return
	}

	if h.audit != nil {
		h.audit.Log(audit.Entry{
			TraceID:   mw.GetTraceID(c),
			EventType: model.EventCreateInbound,
			Operator:  mw.GetUsername(c),
			Object:    "batch:" + req.BatchNo,
			Note:      fmt.Sprintf("%d records", len(records)),
		})
	}
	ok(c, gin.H{"records": records})
}

type updateInboundRequest struct {
	InboundID int64  `json:"inboundId" binding:"required"`
	Quantity  int    `json:"quantity"`
	BatchNo   string `json:"batchNo"`
}

// Update handles POST /updateInbound: edits a still-pending record.
func (h *InboundHandler) Update(c *gin.Context) {
	var req updateInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Quantity < 0 {
		fail(c, http.StatusBadRequest, CodeBadQty, "quantity must be positive")
		return
	}

	updates := map[string]interface{}{}
	if req.Quantity > 0 {
		updates["quantity"] = req.Quantity
	}
	if req.BatchNo != "" {
		updates["batch_no"] = req.BatchNo
	}
	if len(updates) == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "nothing to update")
		return
	}

	res := h.db.Model(&model.InboundRecord{}).
		Where("id = ? AND status = ?", req.InboundID, model.InboundPending).
		Updates(updates)
	if res.Error != nil {
		internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.pendingOnlyError(c, req.InboundID)
		return
	}
	ok(c, nil)
}

type deleteInboundRequest struct {
	InboundID int64 `json:"inboundId" binding:"required"`
}

// Delete handles POST /deleteInbound: removes a still-pending record.
// Confirmed records are never deleted; they must be canceled first.
func (h *InboundHandler) Delete(c *gin.Context) {
	var req deleteInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res := h.db.Where("id = ? AND status = ?", req.InboundID, model.InboundPending).
		Delete(&model.InboundRecord{})
	if res.Error != nil {
		internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.pendingOnlyError(c, req.InboundID)
		return
	}
	ok(c, nil)
}

// List handles GET /listInbounds with shipId/status/batchNo filters.
func (h *InboundHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	q := h.db.Model(&model.InboundRecord{})
	if shipID := int64Query(c, "shipId"); shipID > 0 {
		q = q.Where("ship_id = ?", shipID)
	}
	if status := c.Query("status"); status != "" {
		if !model.InboundStatus(status).Valid() {
			fail(c, http.StatusBadRequest, CodeBadRequest, "unknown status")
			return
		}
		q = q.Where("status = ?", status)
	}
	if batchNo := c.Query("batchNo"); batchNo != "" {
		q = q.Where("batch_no = ?", batchNo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		internalError(c, err)
		return
	}
	var records []model.InboundRecord
	if err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&records).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"total": total, "records": records})
}

// pendingOnlyError distinguishes a missing record from one that is not
// editable because it left the PENDING state.
func (h *InboundHandler) pendingOnlyError(c *gin.Context, inboundID int64) {
	var rec model.InboundRecord
	if err := h.db.First(&rec, inboundID).Error; err != nil {
		fail(c, http.StatusNotFound, CodeNotFound, "inbound record not found")
		return
	}
	fail(c, http.StatusConflict, CodeBadStatus, "inbound record is not pending")
}
