package graphql

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/pkg/testkit"
)

type fakeMenu struct{ items []models.MenuItem }

func (f fakeMenu) List(context.Context) ([]models.MenuItem, error) { return f.items, nil }

func (f fakeMenu) Get(_ context.Context, id uint) (*models.MenuItem, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, errors.New("Menu item not found")
}

func newHandler(t *testing.T) http.Handler {
	schema, err := NewMenuSchema(fakeMenu{items: []models.MenuItem{
		{ID: 1, Name: "Classic", Price: decimal.RequireFromString("9.00"), Category: models.CategoryBurger, IsAvailable: true},
		{ID: 2, Name: "Fries", Price: decimal.RequireFromString("3.50"), Category: models.CategorySide, IsAvailable: true},
	}})
	require.NoError(t, err)
	return Handler(schema)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMenuQuery(t *testing.T) {
	rec := post(t, newHandler(t), `{"query":"{ menu { id name price category } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	testkit.AssertJSONBody(t, `{"data":{"menu":[
		{"id":1,"name":"Classic","price":9,"category":"BURGER"},
		{"id":2,"name":"Fries","price":3.5,"category":"SIDE"}
	]}}`, rec.Body.Bytes())
}

func TestMenuItemQuery(t *testing.T) {
	h := newHandler(t)

	rec := post(t, h, `{"query":"query($id: Int!) { menuItem(id: $id) { name isAvailable } }","variables":{"id":2}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	testkit.AssertJSONBody(t, `{"data":{"menuItem":{"name":"Fries","isAvailable":true}}}`, rec.Body.Bytes())

	rec = post(t, h, `{"query":"{ menuItem(id: 42) { name } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := testkit.DecodeJSON(t, rec.Body.Bytes())
	assert.Contains(t, body, "errors")
	assert.Contains(t, rec.Body.String(), "Menu item not found")
}

func TestHandlerRejectsMissingQuery(t *testing.T) {
	rec := post(t, newHandler(t), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, newHandler(t), `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
