package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"market_client/internal/models"
)

type memoryUser struct {
	user         models.User
	passwordHash string
}

// Memory implements the Storage interface in process memory. Every method
// runs under one lock, which makes multi-step operations atomic.
type Memory struct {
	mu           sync.Mutex
	users        map[int32]*memoryUser
	items        map[int32]*models.Item
	attachments  map[int32]*models.Attachment
	transactions []models.Transaction
	lastID       int32
	now          func() time.Time
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.users = make(map[int32]*memoryUser)
	m.items = make(map[int32]*models.Item)
	m.attachments = make(map[int32]*models.Attachment)
	m.transactions = nil
}

func (m *Memory) nextID() int32 {
	m.lastID++
	return m.lastID
}

// Close is a no-op for in-memory storage.
func (m *Memory) Close() {}

// CreateUser registers a new user with a zero balance.
func (m *Memory) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findUser(username) != nil {
		return nil, ErrUserExists
	}

	entry := &memoryUser{
		user:         models.User{ID: m.nextID(), Username: username, CreatedAt: m.now().UTC()},
		passwordHash: passwordHash,
	}
	m.users[entry.user.ID] = entry
	user := entry.user
	return &user, nil
}

// GetCredentials returns the user and the stored password hash for username.
func (m *Memory) GetCredentials(ctx context.Context, username string) (*models.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.findUser(username)
	if entry == nil {
		return nil, "", ErrUserNotFound
	}
	user := entry.user
	return &user, entry.passwordHash, nil
}

// GetUser returns the user with the given id.
func (m *Memory) GetUser(ctx context.Context, userID int32) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := entry.user
	return &user, nil
}

// GetUserByName returns the user with the given username.
func (m *Memory) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.findUser(username)
	if entry == nil {
		return nil, ErrUserNotFound
	}
	user := entry.user
	return &user, nil
}

// SetAdmin grants admin status to the user.
func (m *Memory) SetAdmin(ctx context.Context, userID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	entry.user.IsAdmin = true
	return nil
}

// AddBalance adds cents to the user's balance. Negative amounts may not overdraw it.
func (m *Memory) AddBalance(ctx context.Context, userID int32, cents int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if entry.user.BalanceCents+cents < 0 {
		return ErrInsufficientFunds
	}
	entry.user.BalanceCents += cents
	return nil
}

// ListItems returns items ordered by id that match filter.
func (m *Memory) ListItems(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	term := strings.ToLower(filter.SearchTerm)
	matched := make([]*models.Item, 0, len(m.items))
	for _, item := range m.items {
		if item.Amount < filter.MinimumStock {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(item.Title), term) {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	items := make([]models.Item, 0, len(matched))
	for i, item := range matched {
		if int64(i) < filter.Offset {
			continue
		}
		if filter.Limit > 0 && int64(len(items)) >= filter.Limit {
			break
		}
		items = append(items, m.withAttachments(item))
	}
	return items, nil
}

// CreateItem stores a new listing and binds the referenced attachments to it.
// Every attachment must belong to the seller and not be bound to another item.
func (m *Memory) CreateItem(ctx context.Context, sellerID int32, newItem NewItem) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[sellerID]; !ok {
		return nil, ErrUserNotFound
	}
	for _, id := range newItem.Attachments {
		attachment, ok := m.attachments[id]
		if !ok || attachment.UploaderID != sellerID || attachment.ItemID != nil {
			return nil, ErrAttachmentsUnavailable
		}
	}

	item := &models.Item{
		ID:          m.nextID(),
		Title:       newItem.Title,
		Description: newItem.Description,
		PriceCents:  newItem.PriceCents,
		Amount:      newItem.Amount,
		SellerID:    sellerID,
		CreatedAt:   m.now().UTC(),
	}
	m.items[item.ID] = item

	for _, id := range newItem.Attachments {
		itemID := item.ID
		m.attachments[id].ItemID = &itemID
	}

	result := m.withAttachments(item)
	return &result, nil
}

// CreateAttachment records an uploaded file that is not yet bound to an item.
func (m *Memory) CreateAttachment(ctx context.Context, uploaderID int32, filePath, thumbnailPath string) (*models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[uploaderID]; !ok {
		return nil, ErrUserNotFound
	}

	attachment := &models.Attachment{
		ID:            m.nextID(),
		FilePath:      filePath,
		ThumbnailPath: thumbnailPath,
		UploaderID:    uploaderID,
		UploadedAt:    m.now().UTC(),
	}
	m.attachments[attachment.ID] = attachment
	result := *attachment
	return &result, nil
}

// BuyItem moves amount units of the item to the buyer and pays the seller.
func (m *Memory) BuyItem(ctx context.Context, buyerID, itemID int32, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	if item.Amount < amount {
		return ErrInsufficientStock
	}
	buyer, ok := m.users[buyerID]
	if !ok {
		return ErrUserNotFound
	}
	total := amount * item.PriceCents
	if buyer.user.BalanceCents < total {
		return ErrInsufficientFunds
	}

	item.Amount -= amount
	buyer.user.BalanceCents -= total
	m.users[item.SellerID].user.BalanceCents += total
	m.record(buyerID, item.SellerID, total)
	return nil
}

// TransferMoney moves cents from the payer to the user named recipient.
func (m *Memory) TransferMoney(ctx context.Context, payerID int32, recipient string, cents int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payer, ok := m.users[payerID]
	if !ok {
		return ErrUserNotFound
	}
	if payer.user.BalanceCents < cents {
		return ErrInsufficientFunds
	}
	receiver := m.findUser(recipient)
	if receiver == nil {
		return ErrUserNotFound
	}

	payer.user.BalanceCents -= cents
	receiver.user.BalanceCents += cents
	m.record(payerID, receiver.user.ID, cents)
	return nil
}

// GetTransactions returns the transactions the user took part in, or all of them when userID is nil.
func (m *Memory) GetTransactions(ctx context.Context, userID *int32) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transactions := make([]models.Transaction, 0, len(m.transactions))
	for _, tr := range m.transactions {
		if userID == nil || tr.PayerID == *userID || tr.ReceiverID == *userID {
			transactions = append(transactions, tr)
		}
	}
	return transactions, nil
}

// Clear removes all data.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset()
	return nil
}

func (m *Memory) findUser(username string) *memoryUser {
	for _, entry := range m.users {
		if entry.user.Username == username {
			return entry
		}
	}
	return nil
}

func (m *Memory) record(payerID, receiverID int32, cents int) {
	m.transactions = append(m.transactions, models.Transaction{
		ID:           m.nextID(),
		PayerID:      payerID,
		ReceiverID:   receiverID,
		TransactedAt: m.now().UTC(),
		AmountCents:  cents,
	})
}

func (m *Memory) withAttachments(item *models.Item) models.Item {
	result := *item
	result.Attachments = []models.Attachment{}
	for _, attachment := range m.attachments {
		if attachment.ItemID != nil && *attachment.ItemID == item.ID {
			result.Attachments = append(result.Attachments, *attachment)
		}
	}
	sort.Slice(result.Attachments, func(i, j int) bool { return result.Attachments[i].ID < result.Attachments[j].ID })
	return result
}
