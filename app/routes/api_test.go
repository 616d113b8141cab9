package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/config"
	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/event"
	"github.com/shashiranjanraj/diner/pkg/middleware"
	"github.com/shashiranjanraj/diner/pkg/router"
	"github.com/shashiranjanraj/diner/pkg/sumup"
	"github.com/shashiranjanraj/diner/pkg/testkit"
	"github.com/shashiranjanraj/diner/pkg/ws"
)

// ─── harness ──────────────────────────────────────────────────────────────────

type api struct {
	t      *testing.T
	db     *gorm.DB
	tokens *auth.Issuer
	srv    *httptest.Server
}

func newAPI(t *testing.T, tweak func(*Deps)) *api {
	t.Helper()

	db := testkit.NewDB(t)
	tokens := auth.NewIssuer("test-secret", time.Hour)
	d := Deps{
		DB:          db,
		Tokens:      tokens,
		LoyaltyMode: config.LoyaltyLegacy,
	}
	if tweak != nil {
		tweak(&d)
	}

	r := router.New()
	stop, err := RegisterAPI(r, d)
	require.NoError(t, err)
	t.Cleanup(stop)

	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return &api{t: t, db: db, tokens: tokens, srv: srv}
}

type reply struct {
	status int
	raw    []byte
}

func (r reply) json(t *testing.T) map[string]interface{} {
	t.Helper()
	return testkit.DecodeJSON(t, r.raw)
}

func (a *api) do(method, path, token string, body interface{}, headers ...string) reply {
	a.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return reply{status: resp.StatusCode, raw: raw}
}

func (a *api) menuItem(name, price string) models.MenuItem {
	a.t.Helper()
	item := models.MenuItem{
		Name:        name,
		Description: name,
		Price:       decimal.RequireFromString(price),
		Category:    models.CategoryBurger,
		ImageURL:    "https://cdn.test/" + name + ".jpg",
		IsAvailable: true,
	}
	require.NoError(a.t, a.db.Create(&item).Error)
	return item
}

// signup registers and logs in a user, returning its id and token.
func (a *api) signup(email string) (uint, string) {
	a.t.Helper()
	res := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "user" + email[:3], "email": email, "password": "secret123",
	})
	require.Equal(a.t, http.StatusCreated, res.status, string(res.raw))

	res = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": "secret123"})
	require.Equal(a.t, http.StatusOK, res.status, string(res.raw))
	body := res.json(a.t)
	user := body["user"].(map[string]interface{})
	return uint(user["id"].(float64)), body["token"].(string)
}

func (a *api) adminToken() string {
	a.t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(a.t, err)
	admin := models.User{Username: "boss", Email: "boss@diner.test", Password: hash, Role: models.RoleAdmin}
	require.NoError(a.t, a.db.Create(&admin).Error)
	token, err := a.tokens.GenerateToken(admin.ID, admin.Role)
	require.NoError(a.t, err)
	return token
}

func (a *api) placeOrder(token string, items ...models.MenuItem) uint {
	a.t.Helper()
	lines := make([]map[string]interface{}, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		lines = append(lines, map[string]interface{}{"menuItemId": it.ID, "quantity": 1, "price": it.Price})
		total = total.Add(it.Price)
	}
	res := a.do(http.MethodPost, "/v1/orders", token, map[string]interface{}{"items": lines, "total": total})
	require.Equal(a.t, http.StatusCreated, res.status, string(res.raw))
	order := res.json(a.t)["order"].(map[string]interface{})
	return uint(order["id"].(float64))
}

// ─── auth ─────────────────────────────────────────────────────────────────────

func TestAuthFlow(t *testing.T) {
	a := newAPI(t, nil)

	res := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "ann", "email": "Ann@Example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, "User registered successfully", res.json(t)["message"])

	res = a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "ann2", "email": "ann@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Email already in use", res.json(t)["error"])

	res = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ann@example.com", "password": "wrong-pass"})
	require.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Invalid credentials", res.json(t)["error"])

	_, token := a.signup("bob@example.com")
	res = a.do(http.MethodGet, "/v1/users/profile", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	profile := res.json(t)
	assert.Equal(t, "bob@example.com", profile["email"])
	assert.Equal(t, models.RoleCustomer, profile["role"])
	assert.EqualValues(t, 0, profile["loyaltyPoints"])
}

func TestRegisterValidation(t *testing.T) {
	a := newAPI(t, nil)

	res := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "al", "email": "not-an-email", "password": "123",
	})
	require.Equal(t, http.StatusBadRequest, res.status)
	body := res.json(t)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Len(t, body["errors"], 3)

	res = a.do(http.MethodPost, "/v1/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestProtectedRoutes(t *testing.T) {
	a := newAPI(t, nil)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/v1/users/profile", "", nil).status)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/v1/users/profile", "garbage", nil).status)

	_, token := a.signup("cat@example.com")
	res := a.do(http.MethodPost, "/v1/admin/menu", token, map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusForbidden, res.status)
}

// ─── menu ─────────────────────────────────────────────────────────────────────

func TestAdminMenuLifecycle(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.adminToken()

	res := a.do(http.MethodPost, "/v1/admin/menu", admin, map[string]interface{}{
		"name": "Classic", "description": "Beef patty", "price": 9.5,
		"category": "BURGER", "imageUrl": "https://cdn.test/classic.jpg",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	id := uint(res.json(t)["id"].(float64))

	res = a.do(http.MethodGet, "/v1/menu", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	testkit.AssertJSONBody(t, fmt.Sprintf(`[{"id":%d}]`, id), onlyIDs(t, res.raw))

	res = a.do(http.MethodPut, fmt.Sprintf("/v1/admin/menu/%d", id), admin, map[string]interface{}{
		"name": "Classic", "description": "Beef patty", "price": 10,
		"category": "BURGER", "isAvailable": false, "imageUrl": "https://cdn.test/classic.jpg",
	})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.Equal(t, false, res.json(t)["isAvailable"])

	res = a.do(http.MethodGet, "/v1/menu", "", nil)
	testkit.AssertJSONBody(t, `[]`, res.raw)

	res = a.do(http.MethodDelete, fmt.Sprintf("/v1/admin/menu/%d", id), admin, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Menu item deleted successfully", res.json(t)["message"])

	res = a.do(http.MethodDelete, fmt.Sprintf("/v1/admin/menu/%d", id), admin, nil)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = a.do(http.MethodDelete, "/v1/admin/menu/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func onlyIDs(t *testing.T, raw []byte) []byte {
	t.Helper()
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &items))
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]interface{}{"id": it["id"]})
	}
	b, err := json.Marshal(out)
	require.NoError(t, err)
	return b
}

func TestGraphQLMenu(t *testing.T) {
	a := newAPI(t, nil)
	item := a.menuItem("Smash", "7.25")

	res := a.do(http.MethodPost, "/v1/graphql", "", map[string]interface{}{
		"query":     `query($id: Int!) { menuItem(id: $id) { name price } }`,
		"variables": map[string]interface{}{"id": item.ID},
	})
	require.Equal(t, http.StatusOK, res.status)
	testkit.AssertJSONBody(t, `{"data":{"menuItem":{"name":"Smash","price":7.25}}}`, res.raw)
}

// ─── orders ───────────────────────────────────────────────────────────────────

func TestOrderMessages(t *testing.T) {
	a := newAPI(t, nil)
	burger := a.menuItem("Stack", "12.40")

	res := a.do(http.MethodPost, "/v1/orders", "", map[string]interface{}{
		"items": []map[string]interface{}{{"menuItemId": burger.ID, "quantity": 2}},
		"total": 24.8,
	})
	require.Equal(t, http.StatusCreated, res.status)
	body := res.json(t)
	assert.Equal(t, "Order created successfully. Complete the payment to confirm your order.", body["message"])
	assert.NotContains(t, body, "pointsEarned")
	assert.EqualValues(t, 24.8, body["order"].(map[string]interface{})["total"])

	_, token := a.signup("dan@example.com")
	res = a.do(http.MethodPost, "/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{{"menuItemId": burger.ID, "quantity": 2}},
		"total": 24.8,
	})
	require.Equal(t, http.StatusCreated, res.status)
	body = res.json(t)
	assert.Equal(t, "Order created successfully. You will earn 24 loyalty points after payment!", body["message"])
	assert.EqualValues(t, 24, body["pointsEarned"])

	res = a.do(http.MethodPost, "/v1/orders", "", map[string]interface{}{"items": []interface{}{}, "total": 0})
	require.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Order must contain at least one item", res.json(t)["error"])

	res = a.do(http.MethodPost, "/v1/orders", "", map[string]interface{}{
		"items": []map[string]interface{}{{"menuItemId": burger.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, res.status)
	testkit.AssertJSONBody(t, `{"error":"Validation failed","errors":{"total":"Total must be a positive number"}}`, res.raw)

	var count int64
	require.NoError(t, a.db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestConfirmPaymentOnPayment(t *testing.T) {
	a := newAPI(t, func(d *Deps) { d.LoyaltyMode = config.LoyaltyOnPayment })
	burger := a.menuItem("Stack", "18.90")
	userID, token := a.signup("eve@example.com")

	paid := a.placeOrder(token, burger)
	path := fmt.Sprintf("/v1/orders/%d/confirm-payment", paid)

	res := a.do(http.MethodPost, path, "", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	body := res.json(t)
	assert.Equal(t, "Payment confirmed and order updated successfully", body["message"])
	assert.EqualValues(t, 18, body["pointsAwarded"])

	res = a.do(http.MethodPost, path, "", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, true, res.json(t)["alreadyProcessed"])

	res = a.do(http.MethodGet, "/v1/users/profile", token, nil)
	assert.EqualValues(t, 18, res.json(t)["loyaltyPoints"])

	failed := a.placeOrder(token, burger)
	res = a.do(http.MethodPost, fmt.Sprintf("/v1/orders/%d/confirm-payment", failed), "", map[string]string{"status": "FAILED"})
	require.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Payment failed", res.json(t)["error"])

	res = a.do(http.MethodPost, fmt.Sprintf("/v1/orders/%d/confirm-payment", failed), "", map[string]string{"status": "PAID"})
	assert.Equal(t, http.StatusConflict, res.status)

	res = a.do(http.MethodPost, "/v1/orders/999/confirm-payment", "", map[string]string{"status": "PAID"})
	assert.Equal(t, http.StatusNotFound, res.status)
	res = a.do(http.MethodPost, "/v1/orders/nope/confirm-payment", "", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Invalid order ID", res.json(t)["error"])

	res = a.do(http.MethodGet, fmt.Sprintf("/v1/users/%d/orders", userID), token, nil)
	require.Equal(t, http.StatusOK, res.status)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(res.raw, &orders))
	assert.Len(t, orders, 2)
}

func TestLegacyLoyaltyScenario(t *testing.T) {
	a := newAPI(t, nil)
	burger := a.menuItem("Classic", "9.00")
	userID, token := a.signup("hal@example.com")

	res := a.do(http.MethodPost, "/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{{"menuItemId": burger.ID, "quantity": 2, "price": 9.0}},
		"total": 18.0,
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	body := res.json(t)
	assert.EqualValues(t, 18, body["pointsEarned"])
	id := uint(body["order"].(map[string]interface{})["id"].(float64))

	points := func() float64 {
		t.Helper()
		res := a.do(http.MethodGet, "/v1/users/profile", token, nil)
		require.Equal(t, http.StatusOK, res.status)
		return res.json(t)["loyaltyPoints"].(float64)
	}
	assert.EqualValues(t, 18, points())

	path := fmt.Sprintf("/v1/orders/%d/confirm-payment", id)
	res = a.do(http.MethodPost, path, "", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.EqualValues(t, 18, res.json(t)["pointsAwarded"])
	assert.EqualValues(t, 36, points())

	res = a.do(http.MethodPost, path, "", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, res.status)
	assert.NotContains(t, res.json(t), "alreadyProcessed")
	assert.EqualValues(t, 54, points())

	res = a.do(http.MethodPost, path, "", map[string]string{"status": "FAILED"})
	require.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Payment failed", res.json(t)["error"])
	assert.EqualValues(t, 54, points())

	var order models.Order
	require.NoError(t, a.db.First(&order, id).Error)
	assert.Equal(t, models.StatusPaymentFailed, order.Status)
	require.NotNil(t, order.UserID)
	assert.Equal(t, userID, *order.UserID)
}

func TestConfirmPaymentSignature(t *testing.T) {
	a := newAPI(t, func(d *Deps) { d.WebhookSecret = "whsec" })
	burger := a.menuItem("Stack", "5")
	id := a.placeOrder("", burger)
	path := fmt.Sprintf("/v1/orders/%d/confirm-payment", id)
	body := `{"status":"PAID"}`

	res := a.do(http.MethodPost, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = a.do(http.MethodPost, path, "", body, middleware.SignatureHeader, middleware.Sign([]byte("other"), []byte(body)))
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = a.do(http.MethodPost, path, "", body, middleware.SignatureHeader, middleware.Sign([]byte("whsec"), []byte(body)))
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.EqualValues(t, 0, res.json(t)["pointsAwarded"])
}

func TestUserOrdersOwnership(t *testing.T) {
	a := newAPI(t, nil)
	ownerID, _ := a.signup("fay@example.com")
	_, other := a.signup("gus@example.com")

	res := a.do(http.MethodGet, fmt.Sprintf("/v1/users/%d/orders", ownerID), other, nil)
	require.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "Not authorized to view these orders", res.json(t)["error"])

	res = a.do(http.MethodGet, fmt.Sprintf("/v1/users/%d/orders", ownerID), a.adminToken(), nil)
	require.Equal(t, http.StatusOK, res.status)
	testkit.AssertJSONBody(t, `[]`, res.raw)
}

// ─── checkout ─────────────────────────────────────────────────────────────────

func fakeSumUp(t *testing.T, tokenStatus int, tokenBody string) *sumup.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(tokenStatus)
		_, _ = io.WriteString(w, tokenBody)
	})
	mux.HandleFunc("/v0.1/checkouts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"chk-123","status":"PENDING"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return sumup.New(sumup.Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"}, srv.Client())
}

func TestInitiateCheckout(t *testing.T) {
	provider := fakeSumUp(t, http.StatusOK, `{"access_token":"tok-1"}`)
	a := newAPI(t, func(d *Deps) { d.Provider = provider })
	burger := a.menuItem("Stack", "8.80")
	id := a.placeOrder("", burger)

	res := a.do(http.MethodPost, "/v1/initiate-checkout", "", map[string]interface{}{"orderId": id})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	testkit.AssertJSONBody(t, fmt.Sprintf(`{"orderId":%d,"checkoutId":"chk-123"}`, id), res.raw)

	var order models.Order
	require.NoError(t, a.db.First(&order, id).Error)
	require.NotNil(t, order.SumupCheckoutID)
	assert.Equal(t, "chk-123", *order.SumupCheckoutID)

	res = a.do(http.MethodPost, "/v1/initiate-checkout", "", map[string]interface{}{"orderId": 999})
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestInitiateCheckoutProviderRejects(t *testing.T) {
	provider := fakeSumUp(t, http.StatusUnauthorized, `{"error":"invalid_client"}`)
	a := newAPI(t, func(d *Deps) { d.Provider = provider })
	burger := a.menuItem("Stack", "8.80")
	id := a.placeOrder("", burger)

	res := a.do(http.MethodPost, "/v1/initiate-checkout", "", map[string]interface{}{"orderId": id})
	require.Equal(t, http.StatusInternalServerError, res.status)
	testkit.AssertJSONBody(t, `{"error":"Error initiating checkout","details":"{\"error\":\"invalid_client\"}"}`, res.raw)
}

// ─── events ───────────────────────────────────────────────────────────────────

func TestOrderEventsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := event.NewBus(16)
	hub := ws.NewHub()
	go bus.Run(ctx) //nolint:errcheck
	go hub.Run(ctx) //nolint:errcheck

	a := newAPI(t, func(d *Deps) {
		d.Bus = bus
		d.Hub = hub
	})
	burger := a.menuItem("Stack", "3")
	id := a.placeOrder("", burger)

	wsURL := "ws" + strings.TrimPrefix(a.srv.URL, "http") + fmt.Sprintf("/v1/orders/%d/events", id)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() event.OrderStatusChanged {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev event.OrderStatusChanged
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	first := read()
	assert.Equal(t, id, first.OrderID)
	assert.Equal(t, string(models.StatusPending), first.Status)

	res := a.do(http.MethodPost, fmt.Sprintf("/v1/orders/%d/confirm-payment", id), "", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, res.status)

	next := read()
	assert.Equal(t, string(models.StatusPaid), next.Status)

	res = a.do(http.MethodGet, "/v1/orders/999/events", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestOrderEventsWithoutHub(t *testing.T) {
	a := newAPI(t, nil)
	burger := a.menuItem("Stack", "3")
	id := a.placeOrder("", burger)

	res := a.do(http.MethodGet, fmt.Sprintf("/v1/orders/%d/events", id), "", nil)
	require.Equal(t, http.StatusServiceUnavailable, res.status)
	assert.Equal(t, "Order events are not available", res.json(t)["error"])
}

func TestRoutesAreNamed(t *testing.T) {
	r := router.New()
	stop, err := RegisterAPI(r, Deps{})
	require.NoError(t, err)
	defer stop()

	names := map[string]bool{}
	for _, ri := range r.Routes() {
		names[ri.Name] = true
	}
	for _, want := range []string{
		"auth.register", "auth.login", "menu.index", "graphql", "orders.store",
		"orders.confirm-payment", "orders.events", "checkout.initiate",
		"users.profile", "users.orders", "admin.menu.store", "admin.menu.update",
		"admin.menu.destroy", "admin.menu.image",
	} {
		assert.True(t, names[want], "route %s missing", want)
	}

	assert.Contains(t, r.Routes(), router.RouteInfo{
		Method: http.MethodPost,
		Path:   "/v1/orders/{orderId}/confirm-payment",
		Name:   "orders.confirm-payment",
	})
}
