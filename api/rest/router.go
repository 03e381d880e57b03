package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/audit"
	"github.com/harborwell/shipstock/cache"
	"github.com/harborwell/shipstock/config"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/stock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps bundles everything the route tree needs.
type Deps struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Stock  *stock.Service
	Audit  *audit.Service
	Config *config.Config
	Logger *zap.Logger
}

// NewRouter builds the gin engine with the full route tree. Routes are flat;
// authentication is the token header, and the admin-only group additionally
// requires the admin role and passes the console IP whitelist.
func NewRouter(d Deps) *gin.Engine {
	if !d.Config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(d.Logger), mw.Recovery(d.Logger))
	if d.Config.Security.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(rate.Limit(d.Config.Security.RateLimitRPS), d.Config.Security.RateLimitBurst))
	}

	authH := NewAuthHandler(d.DB, d.Cache, d.Audit, d.Config.Security)
	inboundH := NewInboundHandler(d.DB, d.Stock, d.Audit)
	claimH := NewClaimHandler(d.DB, d.Stock)
	invH := NewInventoryHandler(d.DB)
	masterH := NewMasterHandler(d.DB)
	userH := NewUserHandler(d.DB)
	logH := NewLogHandler(d.DB)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/login", authH.Login)

	authed := r.Group("", mw.Auth(d.Config.Security, d.Cache))
	{
		authed.POST("/logout", authH.Logout)
		authed.GET("/whoami", authH.Whoami)

		// App-facing: both roles; ship accounts are scoped to their own ship
		// inside the handlers.
		authed.POST("/claimItem", claimH.Claim)
		authed.POST("/cancelClaim", claimH.CancelClaim)
		authed.GET("/listClaims", claimH.List)
		authed.GET("/listInventory", invH.List)
		authed.GET("/listWarnings", invH.Warnings)
		authed.GET("/listShips", masterH.ListShips)
		authed.GET("/listCategories", masterH.ListCategories)
		authed.GET("/listItems", masterH.ListItems)
		authed.GET("/listCrews", masterH.ListCrews)
	}

	admin := authed.Group("", mw.RequireAdmin(), mw.IPWhitelist(d.Config.Security.AdminIPWhitelist))
	{
		admin.POST("/confirmInbound", inboundH.Confirm)
		admin.POST("/cancelInbound", inboundH.Cancel)
		admin.POST("/createInbound", inboundH.Create)
		admin.POST("/updateInbound", inboundH.Update)
		admin.POST("/deleteInbound", inboundH.Delete)
		admin.GET("/listInbounds", inboundH.List)

		admin.POST("/updateStock", invH.UpdateStock)

		admin.POST("/addShip", masterH.AddShip)
		admin.POST("/updateShip", masterH.UpdateShip)
		admin.POST("/deleteShip", masterH.DeleteShip)
		admin.POST("/addCategory", masterH.AddCategory)
		admin.POST("/updateCategory", masterH.UpdateCategory)
		admin.POST("/deleteCategory", masterH.DeleteCategory)
		admin.POST("/addItem", masterH.AddItem)
		admin.POST("/updateItem", masterH.UpdateItem)
		admin.POST("/deleteItem", masterH.DeleteItem)
		admin.POST("/addCrew", masterH.AddCrew)
		admin.POST("/updateCrew", masterH.UpdateCrew)
		admin.POST("/deleteCrew", masterH.DeleteCrew)

		admin.GET("/listUsers", userH.List)
		admin.POST("/addUser", userH.Add)
		admin.POST("/updateUser", userH.Update)
		admin.POST("/deleteUser", userH.Delete)

		admin.GET("/listLogs", logH.List)
	}

	return r
}
