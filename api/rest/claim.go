package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/model"
	"github.com/harborwell/shipstock/stock"
	"gorm.io/gorm"
)

// ClaimHandler handles stock withdrawals made from the on-board app.
type ClaimHandler struct {
	db  *gorm.DB
	svc *stock.Service
}

func NewClaimHandler(db *gorm.DB, svc *stock.Service) *ClaimHandler {
	return &ClaimHandler{db: db, svc: svc}
}

type claimItemRequest struct {
	ShipID   int64  `json:"shipId"`
	ItemID   int64  `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Claimer  string `json:"claimer"`
	Remark   string `json:"remark"`
}

// Claim handles POST /claimItem. Ship accounts always claim against their own
// ship; the shipId in the body is only honored for admins.
func (h *ClaimHandler) Claim(c *gin.Context) {
	var req claimItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Quantity <= 0 {
		fail(c, http.StatusBadRequest, CodeBadQty, "quantity must be positive")
		return
	}

	shipID := req.ShipID
	if mw.GetRole(c) == model.RoleShip {
		bound := mw.GetShipID(c)
		if bound == 0 {
			fail(c, http.StatusForbidden, CodeForbidden, "account not bound to a ship")
			return
		}
		shipID = bound
	}
	if shipID == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "shipId is required")
		return
	}

	claimer := req.Claimer
	if claimer == "" {
		claimer = mw.GetUsername(c)
	}

	rec, err := h.svc.ClaimItem(c.Request.Context(), stock.ClaimItemInput{
		ShipID:   shipID,
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		Claimer:  claimer,
		Remark:   req.Remark,
		Operator: mw.GetUsername(c),
		TraceID:  mw.GetTraceID(c),
	})
	if err != nil {
		writeStockError(c, err)
		return
	}
	ok(c, gin.H{"claim": rec})
}

type cancelClaimRequest struct {
	ClaimID int64  `json:"claimId" binding:"required"`
	Remark  string `json:"remark"`
}

// CancelClaim handles POST /cancelClaim: voids a claim and restores its
// quantity to the ledger. Ship accounts may only void their own ship's claims.
func (h *ClaimHandler) CancelClaim(c *gin.Context) {
	var req cancelClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	if mw.GetRole(c) == model.RoleShip {
		var rec model.ClaimRecord
		if err := h.db.First(&rec, req.ClaimID).Error; err != nil {
			fail(c, http.StatusNotFound, CodeNotFound, "claim not found")
			return
		}
		if rec.ShipID != mw.GetShipID(c) {
			fail(c, http.StatusForbidden, CodeForbidden, "claim belongs to another ship")
			return
		}
	}

	rec, err := h.svc.CancelClaim(c.Request.Context(), stock.CancelClaimInput{
		ClaimID:  req.ClaimID,
		Remark:   req.Remark,
		Operator: mw.GetUsername(c),
		TraceID:  mw.GetTraceID(c),
	})
	if err != nil {
		writeStockError(c, err)
		return
	}
	ok(c, gin.H{"claim": rec})
}

// List handles GET /listClaims with shipId/claimer/status filters. Ship
// accounts see only their own ship.
func (h *ClaimHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	q := h.db.Model(&model.ClaimRecord{})
	if mw.GetRole(c) == model.RoleShip {
		bound := mw.GetShipID(c)
		if bound == 0 {
			fail(c, http.StatusForbidden, CodeForbidden, "account not bound to a ship")
			return
		}
		q = q.Where("ship_id = ?", bound)
	} else if shipID := int64Query(c, "shipId"); shipID > 0 {
		q = q.Where("ship_id = ?", shipID)
	}
	if claimer := c.Query("claimer"); claimer != "" {
		q = q.Where("claimer = ?", claimer)
	}
	if status := c.Query("status"); status != "" {
		if !model.ClaimStatus(status).Valid() {
			fail(c, http.StatusBadRequest, CodeBadRequest, "unknown status")
			return
		}
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		internalError(c, err)
		return
	}
	var records []model.ClaimRecord
	if err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&records).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"total": total, "records": records})
}
