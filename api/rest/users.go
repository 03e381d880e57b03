package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler is the admin-only account management surface.
type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

type addUserRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Name     string `json:"name" binding:"max=32"`
	Role     string `json:"role" binding:"required,oneof=admin ship"`
	ShipID   *int64 `json:"shipId"`
}

func (h *UserHandler) Add(c *gin.Context) {
	var req addUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Role == model.RoleShip {
		if req.ShipID == nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, "ship accounts need a shipId")
			return
		}
		if err := h.db.First(&model.Ship{}, *req.ShipID).Error; err != nil {
			fail(c, http.StatusNotFound, CodeNotFound, "ship not found")
			return
		}
	} else {
		req.ShipID = nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(c, err)
		return
	}
	user := model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		ShipID:       req.ShipID,
		Status:       1,
	}
	if err := h.db.Create(&user).Error; err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "username already exists")
		return
	}
	ok(c, user)
}

type updateUserRequest struct {
	ID       int64   `json:"id" binding:"required"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Role     string  `json:"role" binding:"omitempty,oneof=admin ship"`
	ShipID   *int64  `json:"shipId"`
	Status   *int    `json:"status"`
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Password != "" {
		if len(req.Password) < 6 {
			fail(c, http.StatusBadRequest, CodeBadRequest, "password too short")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			internalError(c, err)
			return
		}
		updates["password_hash"] = string(hash)
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if req.ShipID != nil {
		if err := h.db.First(&model.Ship{}, *req.ShipID).Error; err != nil {
			fail(c, http.StatusNotFound, CodeNotFound, "ship not found")
			return
		}
		updates["ship_id"] = *req.ShipID
	}
	if req.Status != nil {
		// Admins cannot disable themselves.
		if req.ID == mw.GetUserID(c) && *req.Status == 0 {
			fail(c, http.StatusBadRequest, CodeBadRequest, "cannot disable own account")
			return
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		fail(c, http.StatusBadRequest, CodeBadRequest, "nothing to update")
		return
	}

	res := h.db.Model(&model.User{}).Where("id = ?", req.ID).Updates(updates)
	if res.Error != nil {
		internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}
	ok(c, nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok2 := requireID(c)
	if !ok2 {
		return
	}
	if id == mw.GetUserID(c) {
		fail(c, http.StatusBadRequest, CodeBadRequest, "cannot delete own account")
		return
	}
	res := h.db.Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}
	ok(c, nil)
}

func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	q := h.db.Model(&model.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if kw := c.Query("keyword"); kw != "" {
		q = q.Where("username LIKE ?", "%"+kw+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		internalError(c, err)
		return
	}
	var users []model.User
	if err := q.Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"total": total, "users": users})
}
