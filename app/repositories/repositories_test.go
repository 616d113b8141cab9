package repositories_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/app/repositories"
	"github.com/shashiranjanraj/diner/pkg/testkit"
)

func TestLoyaltyUpsertAndAwardLedger(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	repo := repositories.NewLoyaltyRepository(db)

	bal, err := repo.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, bal)

	require.NoError(t, repo.Add(ctx, 7, 18))
	require.NoError(t, repo.Add(ctx, 7, 5))
	require.NoError(t, repo.Add(ctx, 7, 0))
	bal, err = repo.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 23, bal)
	assert.Error(t, repo.Add(ctx, 7, -1))

	require.NoError(t, repo.Add(ctx, 9, 0))
	var empty models.LoyaltyPoints
	require.NoError(t, db.Where("user_id = ?", 9).Take(&empty).Error)
	assert.Zero(t, empty.Points)

	first, err := repo.RecordAward(ctx, &models.LoyaltyAward{OrderID: 1, UserID: 7, Points: 18})
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.RecordAward(ctx, &models.LoyaltyAward{OrderID: 1, UserID: 7, Points: 18})
	require.NoError(t, err)
	assert.False(t, again)
}

func TestOrderTransitionIsGuarded(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	menu := repositories.NewMenuRepository(db)
	orders := repositories.NewOrderRepository(db)

	item := models.MenuItem{Name: "Andalu", Description: "d", Price: decimal.RequireFromString("7.00"), Category: models.CategoryBurger, IsAvailable: true}
	require.NoError(t, menu.Create(ctx, &item))

	order := models.Order{
		Total:  decimal.RequireFromString("14.00"),
		Status: models.StatusPending,
		Items:  []models.OrderItem{{MenuItemID: item.ID, Quantity: 2, Price: item.Price}},
	}
	require.NoError(t, orders.Create(ctx, &order))

	ok, err := orders.TransitionStatus(ctx, order.ID, models.StatusPending, models.StatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orders.TransitionStatus(ctx, order.ID, models.StatusPending, models.StatusPaymentFailed)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleted menu items still appear in history.
	require.NoError(t, menu.Delete(ctx, &item))
	got, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].MenuItem)
	assert.Equal(t, "Andalu", got.Items[0].MenuItem.Name)

	_, err = menu.FindByID(ctx, item.ID)
	assert.Error(t, err)
}

func TestUserLookupIgnoresCase(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(db)

	u := models.User{Username: "ana", Email: "ana@example.com", Password: "x", Role: models.RoleCustomer}
	require.NoError(t, users.Create(ctx, &u))

	got, err := users.FindByEmail(ctx, "  ANA@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}
