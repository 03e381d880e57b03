package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/model"
	"gorm.io/gorm"
)

// MasterHandler covers the master-data CRUD: ships, categories, items, crews.
// Deletes refuse while the row is still referenced by inbounds, claims or
// ledger lines so history stays resolvable.
type MasterHandler struct {
	db *gorm.DB
}

func NewMasterHandler(db *gorm.DB) *MasterHandler {
	return &MasterHandler{db: db}
}

// --- ships ---

type shipRequest struct {
	ID     int64  `json:"id"`
	Name   string `json:"name" binding:"required,max=64"`
	Code   string `json:"code" binding:"max=32"`
	Remark string `json:"remark" binding:"max=255"`
}

func (h *MasterHandler) AddShip(c *gin.Context) {
	var req shipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	ship := model.Ship{Name: req.Name, Code: req.Code, Remark: req.Remark}
	if err := h.db.Create(&ship).Error; err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "ship name already exists")
		return
	}
	ok(c, ship)
}

func (h *MasterHandler) UpdateShip(c *gin.Context) {
	var req shipRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "id and name are required")
		return
	}
	res := h.db.Model(&model.Ship{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"name": req.Name, "code": req.Code, "remark": req.Remark,
	})
	if res.Error != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "ship name already exists")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, "ship not found")
		return
	}
	ok(c, nil)
}

func (h *MasterHandler) DeleteShip(c *gin.Context) {
	id, ok2 := requireID(c)
	if !ok2 {
		return
	}
	if h.referenced(c, "ship is still referenced",
		h.db.Model(&model.InboundRecord{}).Where("ship_id = ?", id),
		h.db.Model(&model.ClaimRecord{}).Where("ship_id = ?", id),
		h.db.Model(&model.InventoryLine{}).Where("ship_id = ?", id),
		h.db.Model(&model.Crew{}).Where("ship_id = ?", id),
		h.db.Model(&model.User{}).Where("ship_id = ?", id)) {
		return
	}
	h.deleteByID(c, &model.Ship{}, id, "ship not found")
}

func (h *MasterHandler) ListShips(c *gin.Context) {
	var ships []model.Ship
	q := h.db.Model(&model.Ship{})
	if kw := c.Query("keyword"); kw != "" {
		q = q.Where("name LIKE ?", "%"+kw+"%")
	}
	if err := q.Order("name").Find(&ships).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"ships": ships})
}

// --- categories ---

type categoryRequest struct {
	ID     int64  `json:"id"`
	Name   string `json:"name" binding:"required,max=64"`
	Remark string `json:"remark" binding:"max=255"`
}

func (h *MasterHandler) AddCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	cat := model.Category{Name: req.Name, Remark: req.Remark}
	if err := h.db.Create(&cat).Error; err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "category name already exists")
		return
	}
	ok(c, cat)
}

func (h *MasterHandler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "id and name are required")
		return
	}
	res := h.db.Model(&model.Category{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"name": req.Name, "remark": req.Remark,
	})
	if res.Error != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "category name already exists")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, "category not found")
		return
	}
	ok(c, nil)
}

func (h *MasterHandler) DeleteCategory(c *gin.Context) {
	id, ok2 := requireID(c)
	if !ok2 {
		return
	}
	if h.referenced(c, "category still has items",
		h.db.Model(&model.Item{}).Where("category_id = ?", id)) {
		return
	}
	h.deleteByID(c, &model.Category{}, id, "category not found")
}

func (h *MasterHandler) ListCategories(c *gin.Context) {
	var cats []model.Category
	if err := h.db.Order("name").Find(&cats).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"categories": cats})
}

// --- items ---

type itemRequest struct {
	ID         int64  `json:"id"`
	Name       string `json:"name" binding:"required,max=64"`
	CategoryID int64  `json:"categoryId" binding:"required"`
	Unit       string `json:"unit" binding:"max=16"`
	Remark     string `json:"remark" binding:"max=255"`
}

func (h *MasterHandler) AddItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := h.db.First(&model.Category{}, req.CategoryID).Error; err != nil {
		fail(c, http.StatusNotFound, CodeNotFound, "category not found")
		return
	}
	item := model.Item{Name: req.Name, CategoryID: req.CategoryID, Unit: req.Unit, Remark: req.Remark}
	if err := h.db.Create(&item).Error; err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "item name already exists in this category")
		return
	}
	ok(c, item)
}

func (h *MasterHandler) UpdateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "id, name and categoryId are required")
		return
	}
	if err := h.db.First(&model.Category{}, req.CategoryID).Error; err != nil {
		fail(c, http.StatusNotFound, CodeNotFound, "category not found")
		return
	}
	res := h.db.Model(&model.Item{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"name": req.Name, "category_id": req.CategoryID, "unit": req.Unit, "remark": req.Remark,
	})
	if res.Error != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "item name already exists in this category")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, "item not found")
		return
	}
	ok(c, nil)
}

func (h *MasterHandler) DeleteItem(c *gin.Context) {
	id, ok2 := requireID(c)
	if !ok2 {
		return
	}
	if h.referenced(c, "item is still referenced",
		h.db.Model(&model.InboundRecord{}).Where("item_id = ?", id),
		h.db.Model(&model.ClaimRecord{}).Where("item_id = ?", id),
		h.db.Model(&model.InventoryLine{}).Where("item_id = ?", id)) {
		return
	}
	h.deleteByID(c, &model.Item{}, id, "item not found")
}

func (h *MasterHandler) ListItems(c *gin.Context) {
	page, pageSize := pageParams(c)
	q := h.db.Model(&model.Item{})
	if categoryID := int64Query(c, "categoryId"); categoryID > 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if kw := c.Query("keyword"); kw != "" {
		q = q.Where("name LIKE ?", "%"+kw+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		internalError(c, err)
		return
	}
	var items []model.Item
	if err := q.Order("name").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"total": total, "items": items})
}

// --- crews ---

type crewRequest struct {
	ID     int64  `json:"id"`
	ShipID int64  `json:"shipId" binding:"required"`
	Name   string `json:"name" binding:"required,max=32"`
	Duty   string `json:"duty" binding:"max=32"`
	Phone  string `json:"phone" binding:"max=32"`
	Status *int   `json:"status"`
}

func (h *MasterHandler) AddCrew(c *gin.Context) {
	var req crewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := h.db.First(&model.Ship{}, req.ShipID).Error; err != nil {
		fail(c, http.StatusNotFound, CodeNotFound, "ship not found")
		return
	}
	crew := model.Crew{ShipID: req.ShipID, Name: req.Name, Duty: req.Duty, Phone: req.Phone, Status: 1}
	if err := h.db.Create(&crew).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, crew)
}

func (h *MasterHandler) UpdateCrew(c *gin.Context) {
	var req crewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "id, shipId and name are required")
		return
	}
	updates := map[string]interface{}{
		"ship_id": req.ShipID, "name": req.Name, "duty": req.Duty, "phone": req.Phone,
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	res := h.db.Model(&model.Crew{}).Where("id = ?", req.ID).Updates(updates)
	if res.Error != nil {
		internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, "crew not found")
		return
	}
	ok(c, nil)
}

func (h *MasterHandler) DeleteCrew(c *gin.Context) {
	id, ok2 := requireID(c)
	if !ok2 {
		return
	}
	h.deleteByID(c, &model.Crew{}, id, "crew not found")
}

func (h *MasterHandler) ListCrews(c *gin.Context) {
	q := h.db.Model(&model.Crew{})
	if shipID := int64Query(c, "shipId"); shipID > 0 {
		q = q.Where("ship_id = ?", shipID)
	}
	var crews []model.Crew
	if err := q.Order("id").Find(&crews).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"crews": crews})
}

// --- shared helpers ---

type idRequest struct {
	ID int64 `json:"id" binding:"required"`
}

func requireID(c *gin.Context) (int64, bool) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return 0, false
	}
	return req.ID, true
}

// referenced rejects the delete with 409 when any of the queries has rows.
func (h *MasterHandler) referenced(c *gin.Context, msg string, queries ...*gorm.DB) bool {
	for _, q := range queries {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			internalError(c, err)
			return true
		}
		if n > 0 {
			fail(c, http.StatusConflict, CodeBadStatus, msg)
			return true
		}
	}
	return false
}

func (h *MasterHandler) deleteByID(c *gin.Context, mdl interface{}, id int64, notFound string) {
	res := h.db.Where("id = ?", id).Delete(mdl)
	if res.Error != nil {
		internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, notFound)
		return
	}
	ok(c, nil)
}
