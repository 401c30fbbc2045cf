package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_client/internal/models"
)

func seedUsers(t *testing.T, m *Memory, names ...string) []*models.User {
	t.Helper()

	users := make([]*models.User, 0, len(names))
	for _, name := range names {
		user, err := m.CreateUser(context.Background(), name, "hash-"+name)
		require.NoError(t, err)
		users = append(users, user)
	}
	return users
}

func TestMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	users := seedUsers(t, m, "alice")
	alice := users[0]
	assert.Equal(t, 0, alice.BalanceCents)
	assert.False(t, alice.IsAdmin)

	_, err := m.CreateUser(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	user, hash, err := m.GetCredentials(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, "hash-alice", hash)

	_, _, err = m.GetCredentials(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, m.SetAdmin(ctx, alice.ID))
	require.NoError(t, m.AddBalance(ctx, alice.ID, 500))
	user, err = m.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, 500, user.BalanceCents)

	assert.ErrorIs(t, m.AddBalance(ctx, alice.ID, -501), ErrInsufficientFunds)
	assert.ErrorIs(t, m.SetAdmin(ctx, 999), ErrUserNotFound)

	// Returned records are copies.
	user.BalanceCents = 0
	user, err = m.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, user.BalanceCents)
}

func TestMemory_ListItems(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seller := seedUsers(t, m, "seller")[0]

	for _, newItem := range []NewItem{
		{Title: "Desk Lamp", Amount: 2, PriceCents: 100},
		{Title: "Floor lamp", Amount: 0, PriceCents: 200},
		{Title: "Chair", Amount: 1, PriceCents: 300},
		{Title: "LAMPSHADE", Amount: 5, PriceCents: 400},
	} {
		_, err := m.CreateItem(ctx, seller.ID, newItem)
		require.NoError(t, err)
	}

	titles := func(items []models.Item) []string {
		result := make([]string, 0, len(items))
		for _, item := range items {
			result = append(result, item.Title)
		}
		return result
	}

	testCases := []struct {
		name   string
		filter ItemFilter
		want   []string
	}{
		{name: "in stock", filter: ItemFilter{Limit: 20, MinimumStock: 1}, want: []string{"Desk Lamp", "Chair", "LAMPSHADE"}},
		{name: "with out of stock", filter: ItemFilter{Limit: 20}, want: []string{"Desk Lamp", "Floor lamp", "Chair", "LAMPSHADE"}},
		{name: "case-insensitive search", filter: ItemFilter{SearchTerm: "lamp", Limit: 20, MinimumStock: 1}, want: []string{"Desk Lamp", "LAMPSHADE"}},
		{name: "offset and limit", filter: ItemFilter{Offset: 1, Limit: 2}, want: []string{"Floor lamp", "Chair"}},
		{name: "offset past the end", filter: ItemFilter{Offset: 10, Limit: 2}, want: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := m.ListItems(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(items))
		})
	}
}

func TestMemory_CreateItemAttachments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	users := seedUsers(t, m, "alice", "bob")
	alice, bob := users[0], users[1]

	own, err := m.CreateAttachment(ctx, alice.ID, "public/a.png", "public/a.thumb.png")
	require.NoError(t, err)
	assert.Nil(t, own.ItemID)
	foreign, err := m.CreateAttachment(ctx, bob.ID, "public/b.png", "public/b.thumb.png")
	require.NoError(t, err)

	_, err = m.CreateItem(ctx, alice.ID, NewItem{Title: "Lamp", Amount: 1, PriceCents: 100, Attachments: []int32{own.ID, foreign.ID}})
	assert.ErrorIs(t, err, ErrAttachmentsUnavailable)

	item, err := m.CreateItem(ctx, alice.ID, NewItem{Title: "Lamp", Amount: 1, PriceCents: 100, Attachments: []int32{own.ID}})
	require.NoError(t, err)
	require.Len(t, item.Attachments, 1)
	assert.Equal(t, own.ID, item.Attachments[0].ID)
	require.NotNil(t, item.Attachments[0].ItemID)
	assert.Equal(t, item.ID, *item.Attachments[0].ItemID)

	// A bound attachment cannot be reused.
	_, err = m.CreateItem(ctx, alice.ID, NewItem{Title: "Second", Amount: 1, PriceCents: 100, Attachments: []int32{own.ID}})
	assert.ErrorIs(t, err, ErrAttachmentsUnavailable)

	items, err := m.ListItems(ctx, ItemFilter{Limit: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Len(t, items[0].Attachments, 1)
}

func TestMemory_BuyItem(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	users := seedUsers(t, m, "buyer", "seller")
	buyer, seller := users[0], users[1]
	require.NoError(t, m.AddBalance(ctx, buyer.ID, 1000))

	item, err := m.CreateItem(ctx, seller.ID, NewItem{Title: "Lamp", Amount: 3, PriceCents: 400})
	require.NoError(t, err)

	assert.ErrorIs(t, m.BuyItem(ctx, buyer.ID, item.ID+100, 1), ErrItemNotFound)
	assert.ErrorIs(t, m.BuyItem(ctx, buyer.ID, item.ID, 4), ErrInsufficientStock)

	require.NoError(t, m.BuyItem(ctx, buyer.ID, item.ID, 2))
	assert.ErrorIs(t, m.BuyItem(ctx, buyer.ID, item.ID, 1), ErrInsufficientFunds)

	got, err := m.GetUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, got.BalanceCents)
	got, err = m.GetUser(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 800, got.BalanceCents)

	items, err := m.ListItems(ctx, ItemFilter{Limit: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Amount)

	history, err := m.GetTransactions(ctx, &seller.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, buyer.ID, history[0].PayerID)
	assert.Equal(t, seller.ID, history[0].ReceiverID)
	assert.Equal(t, 800, history[0].AmountCents)
}

func TestMemory_TransferMoney(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	users := seedUsers(t, m, "alice", "bob", "carol")
	alice, bob := users[0], users[1]
	require.NoError(t, m.AddBalance(ctx, alice.ID, 250))

	assert.ErrorIs(t, m.TransferMoney(ctx, alice.ID, "nobody", 10), ErrUserNotFound)
	assert.ErrorIs(t, m.TransferMoney(ctx, alice.ID, "bob", 251), ErrInsufficientFunds)
	require.NoError(t, m.TransferMoney(ctx, alice.ID, "bob", 250))

	got, err := m.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, got.BalanceCents)

	all, err := m.GetTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := m.GetTransactions(ctx, &users[2].ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	alice := seedUsers(t, m, "alice")[0]

	require.NoError(t, m.Clear(ctx))

	_, err := m.GetUser(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Ids are not reused after a clear.
	fresh := seedUsers(t, m, "alice")[0]
	assert.Greater(t, fresh.ID, alice.ID)
}
