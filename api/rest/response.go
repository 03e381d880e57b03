package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/stock"
)

// Response codes shared by all endpoints.
const (
	CodeOK               = "OK"
	CodeBadRequest       = "BAD_REQUEST"
	CodeBadQty           = "BAD_QTY"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyConfirmed = "ALREADY_CONFIRMED"
	CodeBadStatus        = "BAD_STATUS"
	CodeUnderflow        = "INVENTORY_UNDERFLOW"
	CodeForbidden        = "FORBIDDEN"
	CodeInternal         = "INTERNAL"
)

// ok writes the success envelope.
func ok(c *gin.Context, data interface{}) {
	body := gin.H{"success": true, "code": CodeOK, "message": "ok"}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// fail writes the failure envelope.
func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "code": code, "message": message})
}

// internalError hides storage details from the caller; the middleware logger
// has the trace id for server-side correlation.
func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false, "code": CodeInternal, "message": "internal error", "error": err.Error(),
	})
}

// writeStockError maps stock business errors onto the envelope.
func writeStockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stock.ErrBadQuantity):
		fail(c, http.StatusBadRequest, CodeBadQty, "quantity must be positive")
	case errors.Is(err, stock.ErrInsufficientStock):
		fail(c, http.StatusBadRequest, CodeBadQty, "insufficient stock")
	case errors.Is(err, stock.ErrLineMissing):
		fail(c, http.StatusBadRequest, CodeBadRequest, "item not in stock")
	case errors.Is(err, stock.ErrNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, "record not found")
	case errors.Is(err, stock.ErrAlreadyConfirmed):
		fail(c, http.StatusConflict, CodeAlreadyConfirmed, "inbound already confirmed")
	case errors.Is(err, stock.ErrBadStatus):
		fail(c, http.StatusConflict, CodeBadStatus, "operation invalid for current status")
	case errors.Is(err, stock.ErrUnderflow):
		fail(c, http.StatusConflict, CodeUnderflow, "cancellation would underflow inventory")
	default:
		internalError(c, err)
	}
}

// pageParams reads page/pageSize query params with sane bounds.
func pageParams(c *gin.Context) (page, pageSize int) {
	page = intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = intQuery(c, "pageSize", 20)
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

func intQuery(c *gin.Context, key string, def int) int {
	s := c.Query(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func int64Query(c *gin.Context, key string) int64 {
	n, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
