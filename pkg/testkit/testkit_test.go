package testkit

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransport(t *testing.T) {
	mt := NewMockTransport(true)
	mt.On(http.MethodPost, "https://api.test/token").Reply(http.StatusOK, `{"access_token":"abc"}`)
	mt.On("", "https://api.test/down").Fail(errors.New("dial refused"))

	client := &http.Client{Transport: mt}

	resp, err := client.Post("https://api.test/token", "application/x-www-form-urlencoded", strings.NewReader("a=b"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	AssertJSONBody(t, `{"access_token": "abc"}`, body)

	_, err = client.Get("https://api.test/down")
	assert.ErrorContains(t, err, "dial refused")

	_, err = client.Get("https://api.test/unknown")
	assert.ErrorContains(t, err, "unexpected outgoing HTTP call")

	reqs := mt.Requests()
	require.Len(t, reqs, 3)
	sent, _ := io.ReadAll(reqs[0].Body)
	assert.Equal(t, "a=b", string(sent))

	mt.AssertAllCalled(t)
}

func TestNewDBIsMigrated(t *testing.T) {
	db := NewDB(t)
	for _, table := range []string{"users", "menu_items", "orders", "order_items", "loyalty_points", "loyalty_awards"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
