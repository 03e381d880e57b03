package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/model"
	"gorm.io/gorm"
)

// InventoryHandler exposes read views over the ledger plus the admin-side
// threshold/remark edits. Quantities themselves are only changed through
// stock.Service.
type InventoryHandler struct {
	db *gorm.DB
}

func NewInventoryHandler(db *gorm.DB) *InventoryHandler {
	return &InventoryHandler{db: db}
}

// inventoryRow is an InventoryLine joined with its item and ship names.
type inventoryRow struct {
	model.InventoryLine
	ItemName     string `json:"itemName"`
	ItemUnit     string `json:"itemUnit"`
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	ShipName     string `json:"shipName"`
}

func (h *InventoryHandler) joined() *gorm.DB {
	return h.db.Model(&model.InventoryLine{}).
		Select("inventory_lines.*, items.name AS item_name, items.unit AS item_unit, items.category_id AS category_id, categories.name AS category_name, ships.name AS ship_name").
		Joins("JOIN items ON items.id = inventory_lines.item_id").
		Joins("JOIN categories ON categories.id = items.category_id").
		Joins("JOIN ships ON ships.id = inventory_lines.ship_id")
}

// List handles GET /listInventory. Ship accounts see only their own ship.
func (h *InventoryHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	q := h.joined()
	if mw.GetRole(c) == model.RoleShip {
		bound := mw.GetShipID(c)
		if bound == 0 {
			fail(c, http.StatusForbidden, CodeForbidden, "account not bound to a ship")
			return
		}
		q = q.Where("inventory_lines.ship_id = ?", bound)
	} else if shipID := int64Query(c, "shipId"); shipID > 0 {
		q = q.Where("inventory_lines.ship_id = ?", shipID)
	}
	if itemID := int64Query(c, "itemId"); itemID > 0 {
		q = q.Where("inventory_lines.item_id = ?", itemID)
	}
	if categoryID := int64Query(c, "categoryId"); categoryID > 0 {
		q = q.Where("items.category_id = ?", categoryID)
	}
	if kw := c.Query("keyword"); kw != "" {
		q = q.Where("items.name LIKE ?", "%"+kw+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		internalError(c, err)
		return
	}
	var rows []inventoryRow
	if err := q.Order("inventory_lines.ship_id, items.name").
		Offset((page - 1) * pageSize).Limit(pageSize).Scan(&rows).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"total": total, "lines": rows})
}

// Warnings handles GET /listWarnings: lines at or below their threshold.
// Lines with no threshold set never warn.
func (h *InventoryHandler) Warnings(c *gin.Context) {
	q := h.joined().Where("inventory_lines.threshold IS NOT NULL AND inventory_lines.quantity <= inventory_lines.threshold")
	if mw.GetRole(c) == model.RoleShip {
		bound := mw.GetShipID(c)
		if bound == 0 {
			fail(c, http.StatusForbidden, CodeForbidden, "account not bound to a ship")
			return
		}
		q = q.Where("inventory_lines.ship_id = ?", bound)
	} else if shipID := int64Query(c, "shipId"); shipID > 0 {
		q = q.Where("inventory_lines.ship_id = ?", shipID)
	}

	var rows []inventoryRow
	if err := q.Order("inventory_lines.quantity ASC").Scan(&rows).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"lines": rows})
}

type updateStockRequest struct {
	ID        int64   `json:"id" binding:"required"`
	Threshold *int    `json:"threshold"`
	Remark    *string `json:"remark"`
}

// UpdateStock handles POST /updateStock: admin edit of threshold and remark.
// A negative threshold clears it.
func (h *InventoryHandler) UpdateStock(c *gin.Context) {
	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			updates["threshold"] = nil
		} else {
			updates["threshold"] = *req.Threshold
		}
	}
	if req.Remark != nil {
		updates["remark"] = *req.Remark
	}
	if len(updates) == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "nothing to update")
		return
	}

	res := h.db.Model(&model.InventoryLine{}).Where("id = ?", req.ID).Updates(updates)
	if res.Error != nil {
		internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, "inventory line not found")
		return
	}
	ok(c, nil)
}
