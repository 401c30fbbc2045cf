// Package models defines the data structures exchanged with the marketplace API.
// It includes request payloads for authentication, item listing and purchasing,
// attachment uploads and administration, and the records the backend returns for
// users, items, attachments and transactions.
package models

import "time"

// UserQuery represents the authentication and registration request payload.
// It contains the username and password provided by the user and is never stored.
type UserQuery struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the body returned by a successful login.
type LoginResponse struct {
	IsAdmin bool `json:"is_admin"`
}

// User represents a marketplace account as returned by the backend.
type User struct {
	ID           int32     `json:"id"`
	Username     string    `json:"username"`
	BalanceCents int       `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
	IsAdmin      bool      `json:"is_admin"`
}

// ItemQuery represents the filtering, paging and stock options for listing items.
// A nil field means "use the server default" and is sent as null.
type ItemQuery struct {
	SearchTerm           *string `json:"search_term"`
	Offset               *int64  `json:"offset"`
	Limit                *int64  `json:"limit"`
	GetItemsWithoutStock *bool   `json:"get_items_without_stock"`
}

// Attachment represents an uploaded file that can be linked to an item listing.
type Attachment struct {
	ID            int32     `json:"id"`
	FilePath      string    `json:"file_path"`
	ThumbnailPath string    `json:"thumbnail_path"`
	ItemID        *int32    `json:"item_id"`
	UploaderID    int32     `json:"uploader_id"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Item represents an item listed for sale together with its attachments.
type Item struct {
	ID          int32        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	PriceCents  int          `json:"price_cents"`
	Amount      int          `json:"amount"` // Stock count.
	SellerID    int32        `json:"seller_id"`
	CreatedAt   time.Time    `json:"created_at"`
	Attachments []Attachment `json:"attachments"`
}

// InStock reports whether at least one unit of the item is available.
func (item Item) InStock() bool {
	return item.Amount > 0
}

// NewItemQuery represents the payload for listing a new item.
// Price is a decimal display string converted to cents by the server,
// Attachments holds ids of attachments previously uploaded by the seller.
type NewItemQuery struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      int     `json:"amount"`
	Price       string  `json:"price"`
	Attachments []int32 `json:"attachments"`
}

// BuyQuery represents the payload for purchasing an amount of an item.
type BuyQuery struct {
	ItemID int32 `json:"item_id"`
	Amount int   `json:"amount"`
}

// AdminPromoteQuery represents the payload for promoting a user to admin.
// A nil UserID targets the currently logged in user.
type AdminPromoteQuery struct {
	UserID *int32 `json:"user_id"`
}

// AdminGiveQuery represents the payload for granting balance to a user.
// A nil UserID targets the currently logged in user.
type AdminGiveQuery struct {
	UserID      *int32 `json:"user_id"`
	AmountCents int    `json:"amount_cents"`
}

// ValidateQuery represents the payload for validating a single form value.
type ValidateQuery struct {
	Value string `json:"value"`
}

// TransferQuery represents the payload for sending money to another user.
type TransferQuery struct {
	AmountCents int    `json:"amount_cents"`
	Recipient   string `json:"recipient"`
}

// Transaction represents a recorded movement of money between two users.
type Transaction struct {
	ID           int32     `json:"id"`
	PayerID      int32     `json:"payer_id"`
	ReceiverID   int32     `json:"receiver_id"`
	TransactedAt time.Time `json:"transacted_at"`
	AmountCents  int       `json:"amount_cents"`
}
