package rest_test

import (
	"net/http"
	"testing"

	"github.com/harborwell/shipstock/model"
	"github.com/harborwell/shipstock/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListInventory_JoinedNames(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", model.RoleAdmin, nil)
	ship := testutil.CreateShip(t, env.db, "MV Aurora")
	item := testutil.CreateItem(t, env.db, "provisions", "rice")
	stockShip(t, env, admin, ship.ID, item.ID, 40)

	w := env.do(t, http.MethodGet, "/listInventory", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	lines := resp.Data["lines"].([]interface{})
	require.Len(t, lines, 1)
	line := lines[0].(map[string]interface{})
	assert.Equal(t, "rice", line["itemName"])
	assert.Equal(t, "provisions", line["categoryName"])
	assert.Equal(t, "MV Aurora", line["shipName"])
	assert.EqualValues(t, 40, line["quantity"])
}

func TestListInventory_ShipScoped(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", model.RoleAdmin, nil)
	aurora := testutil.CreateShip(t, env.db, "MV Aurora")
	boreas := testutil.CreateShip(t, env.db, "MV Boreas")
	item := testutil.CreateItem(t, env.db, "provisions", "rice")
	stockShip(t, env, admin, aurora.ID, item.ID, 10)
	stockShip(t, env, admin, boreas.ID, item.ID, 20)

	token := env.login(t, "deckhand", model.RoleShip, &aurora.ID)
	w := env.do(t, http.MethodGet, "/listInventory", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lines := decode(t, w).Data["lines"].([]interface{})
	require.Len(t, lines, 1)
	assert.EqualValues(t, 10, lines[0].(map[string]interface{})["quantity"])
}

func TestUpdateStock_ThresholdAndWarnings(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", model.RoleAdmin, nil)
	ship := testutil.CreateShip(t, env.db, "MV Aurora")
	item := testutil.CreateItem(t, env.db, "provisions", "rice")
	stockShip(t, env, admin, ship.ID, item.ID, 8)

	var line model.InventoryLine
	require.NoError(t, env.db.Where("ship_id = ? AND item_id = ?", ship.ID, item.ID).First(&line).Error)

	// No threshold set: never warns.
	w := env.do(t, http.MethodGet, "/listWarnings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w).Data["lines"])

	w = env.do(t, http.MethodPost, "/updateStock", admin, map[string]interface{}{
		"id": line.ID, "threshold": 10, "remark": "reorder from chandler",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/listWarnings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lines := decode(t, w).Data["lines"].([]interface{})
	require.Len(t, lines, 1)
	assert.EqualValues(t, 8, lines[0].(map[string]interface{})["quantity"])

	// Negative threshold clears the warning.
	w = env.do(t, http.MethodPost, "/updateStock", admin, map[string]interface{}{
		"id": line.ID, "threshold": -1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/listWarnings", admin, nil)
	assert.Empty(t, decode(t, w).Data["lines"])
}

func TestUpdateStock_NeverTouchesQuantity(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", model.RoleAdmin, nil)
	ship := testutil.CreateShip(t, env.db, "MV Aurora")
	item := testutil.CreateItem(t, env.db, "provisions", "rice")
	stockShip(t, env, admin, ship.ID, item.ID, 8)

	var line model.InventoryLine
	require.NoError(t, env.db.Where("ship_id = ?", ship.ID).First(&line).Error)

	w := env.do(t, http.MethodPost, "/updateStock", admin, map[string]interface{}{
		"id": line.ID, "threshold": 3, "remark": "x",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 8, ledgerQty(t, env, ship.ID, item.ID))
}

func TestUpdateStock_NotFound(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", model.RoleAdmin, nil)
	w := env.do(t, http.MethodPost, "/updateStock", admin, map[string]interface{}{
		"id": 999, "threshold": 5,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
