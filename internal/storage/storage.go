// Package storage provides the persistence used by the stub marketplace service.
// It defines the Storage interface along with an in-memory implementation, used by
// tests and local development, and a PostgreSQL implementation that manages users,
// items, attachments, purchases and money transfers.
package storage

import (
	"context"
	"errors"

	"market_client/internal/models"
)

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks market_client/internal/storage Storage

// Errors reported by every Storage implementation.
var (
	ErrUserExists             = errors.New("storage: user already registered")
	ErrUserNotFound           = errors.New("storage: user not found")
	ErrItemNotFound           = errors.New("storage: item not found")
	ErrInsufficientStock      = errors.New("storage: not enough items in stock")
	ErrInsufficientFunds      = errors.New("storage: insufficient funds")
	ErrAttachmentsUnavailable = errors.New("storage: attachments unavailable")
)

// ItemFilter selects the items returned by ListItems.
type ItemFilter struct {
	SearchTerm   string // Case-insensitive substring of the title; empty matches all.
	Offset       int64
	Limit        int64
	MinimumStock int
}

// NewItem holds a validated item listing.
type NewItem struct {
	Title       string
	Description string
	Amount      int
	PriceCents  int
	Attachments []int32 // Deduplicated attachment ids.
}

// Storage defines the methods required for data storage operations.
type Storage interface {
	// Close releases the underlying resources.
	Close()

	// User methods.
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetCredentials(ctx context.Context, username string) (*models.User, string, error)
	GetUser(ctx context.Context, userID int32) (*models.User, error)
	GetUserByName(ctx context.Context, username string) (*models.User, error)
	SetAdmin(ctx context.Context, userID int32) error
	AddBalance(ctx context.Context, userID int32, cents int) error

	// Item and attachment methods.
	ListItems(ctx context.Context, filter ItemFilter) ([]models.Item, error)
	CreateItem(ctx context.Context, sellerID int32, item NewItem) (*models.Item, error)
	CreateAttachment(ctx context.Context, uploaderID int32, filePath, thumbnailPath string) (*models.Attachment, error)

	// Transactional operations.
	BuyItem(ctx context.Context, buyerID, itemID int32, amount int) error
	TransferMoney(ctx context.Context, payerID int32, recipient string, cents int) error
	GetTransactions(ctx context.Context, userID *int32) ([]models.Transaction, error)

	// Clear removes all data.
	Clear(ctx context.Context) error
}
