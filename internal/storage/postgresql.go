package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"market_client/internal/models"
	"market_client/internal/pkg/logger"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR NOT NULL UNIQUE,
		password_hash VARCHAR NOT NULL,
		balance_cents INTEGER NOT NULL DEFAULT 0 CONSTRAINT users_balance_check CHECK (balance_cents >= 0),
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS items (
		id SERIAL PRIMARY KEY,
		title VARCHAR NOT NULL,
		description VARCHAR NOT NULL,
		price_cents INTEGER NOT NULL,
		amount INTEGER NOT NULL CONSTRAINT items_amount_check CHECK (amount >= 0),
		seller_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id SERIAL PRIMARY KEY,
		file_path VARCHAR NOT NULL,
		thumbnail_path VARCHAR NOT NULL,
		item_id INTEGER REFERENCES items (id) ON DELETE CASCADE,
		uploader_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		payer_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		receiver_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		amount_cents INTEGER NOT NULL,
		transacted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

const (
	createUserQuery         = `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, balance_cents, is_admin, created_at;`
	getCredentialsQuery     = `SELECT id, username, balance_cents, is_admin, created_at, password_hash FROM users WHERE username = $1;`
	getUserQuery            = `SELECT id, username, balance_cents, is_admin, created_at FROM users WHERE id = $1;`
	getUserByNameQuery      = `SELECT id, username, balance_cents, is_admin, created_at FROM users WHERE username = $1;`
	setAdminQuery           = `UPDATE users SET is_admin = TRUE WHERE id = $1;`
	updateBalanceQuery      = `UPDATE users SET balance_cents = balance_cents + $1 WHERE id = $2;`
	listItemsQuery          = `SELECT id, title, description, price_cents, amount, seller_id, created_at FROM items WHERE amount >= $1 AND ($2 = '' OR title ILIKE '%' || $2 || '%') ORDER BY id OFFSET $3 LIMIT $4;`
	listAttachmentsQuery    = `SELECT id, file_path, thumbnail_path, item_id, uploader_id, uploaded_at FROM attachments WHERE item_id = ANY($1) ORDER BY id;`
	lockAttachmentsQuery    = `SELECT id FROM attachments WHERE id = ANY($1) AND uploader_id = $2 AND item_id IS NULL FOR UPDATE;`
	createItemQuery         = `INSERT INTO items (title, description, price_cents, amount, seller_id) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at;`
	bindAttachmentsQuery    = `UPDATE attachments SET item_id = $1 WHERE id = ANY($2);`
	createAttachmentQuery   = `INSERT INTO attachments (file_path, thumbnail_path, uploader_id) VALUES ($1, $2, $3) RETURNING id, uploaded_at;`
	lockItemQuery           = `SELECT price_cents, amount, seller_id FROM items WHERE id = $1 FOR UPDATE;`
	updateStockQuery        = `UPDATE items SET amount = amount - $1 WHERE id = $2;`
	recordTransactionQuery  = `INSERT INTO transactions (payer_id, receiver_id, amount_cents) VALUES ($1, $2, $3);`
	getTransactionsQuery    = `SELECT id, payer_id, receiver_id, transacted_at, amount_cents FROM transactions WHERE $1::INTEGER IS NULL OR payer_id = $1 OR receiver_id = $1 ORDER BY id;`
	getRecipientIDQuery     = `SELECT id FROM users WHERE username = $1;`
	clearQuery              = `TRUNCATE attachments, transactions, items, users;`
	usersBalanceConstraint  = "users_balance_check"
	itemsAmountConstraint   = "items_amount_check"
	defaultTimeout          = 10 * time.Second
	initialItemsCapacity    = 20
	initialHistoryCapacity  = 10
)

var searchTermEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgreSQL implements the Storage interface using a PostgreSQL database.
type PostgreSQL struct {
	db  *sql.DB        // Connection to the database.
	log *logger.Logger // Logger for recording events and errors.
}

// NewPostgreSQL creates a new PostgreSQL instance with the provided connection string and logger.
// It opens the connection, pings the database and creates the schema if it does not exist yet.
func NewPostgreSQL(configDBString string, l *logger.Logger) (*PostgreSQL, error) {
	db, err := sql.Open("pgx", configDBString)
	if err != nil {
		l.Sugar().Errorf("Failed to open a database: %s", err)
		return &PostgreSQL{db: db, log: l}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		l.Sugar().Errorf("Database ping failed: %s", err)
		return &PostgreSQL{db: db, log: l}, err
	}

	for _, query := range schemaQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			l.Sugar().Errorf("Failed to create the schema: %s", err)
			return &PostgreSQL{db: db, log: l}, err
		}
	}

	return &PostgreSQL{db: db, log: l}, nil
}

// Close closes the database connection if it is open.
func (postgresql *PostgreSQL) Close() {
	if postgresql.db != nil {
		postgresql.db.Close()
	}
}

// CreateUser registers a new user. A taken username is reported as ErrUserExists.
func (postgresql *PostgreSQL) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{Username: username}

	err := postgresql.db.QueryRowContext(ctx, createUserQuery, username, passwordHash).
		Scan(&user.ID, &user.BalanceCents, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query createUserQuery: %s", err)
		return nil, classify(err)
	}
	return user, nil
}

// GetCredentials retrieves the user and its password hash by username.
func (postgresql *PostgreSQL) GetCredentials(ctx context.Context, username string) (*models.User, string, error) {
	user := &models.User{}
	var passwordHash string

	err := postgresql.db.QueryRowContext(ctx, getCredentialsQuery, username).
		Scan(&user.ID, &user.Username, &user.BalanceCents, &user.IsAdmin, &user.CreatedAt, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query getCredentialsQuery: %s", err)
		return nil, "", err
	}
	return user, passwordHash, nil
}

// GetUser retrieves a user by id.
func (postgresql *PostgreSQL) GetUser(ctx context.Context, userID int32) (*models.User, error) {
	return postgresql.queryUser(ctx, getUserQuery, userID)
}

// GetUserByName retrieves a user by username.
func (postgresql *PostgreSQL) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	return postgresql.queryUser(ctx, getUserByNameQuery, username)
}

func (postgresql *PostgreSQL) queryUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}

	err := postgresql.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.BalanceCents, &user.IsAdmin, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a user query: %s", err)
		return nil, err
	}
	return user, nil
}

// SetAdmin grants admin status to the user.
func (postgresql *PostgreSQL) SetAdmin(ctx context.Context, userID int32) error {
	result, err := postgresql.db.ExecContext(ctx, setAdminQuery, userID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query setAdminQuery: %s", err)
		return err
	}
	return requireRow(result)
}

// AddBalance adds cents to the user's balance. Overdrawing is reported as ErrInsufficientFunds.
func (postgresql *PostgreSQL) AddBalance(ctx context.Context, userID int32, cents int) error {
	result, err := postgresql.db.ExecContext(ctx, updateBalanceQuery, cents, userID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query updateBalanceQuery: %s", err)
		return classify(err)
	}
	return requireRow(result)
}

// ListItems retrieves the items matching filter together with their attachments.
func (postgresql *PostgreSQL) ListItems(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	limit := sql.NullInt64{Int64: filter.Limit, Valid: filter.Limit > 0}
	term := searchTermEscaper.Replace(filter.SearchTerm)

	rows, err := postgresql.db.QueryContext(ctx, listItemsQuery, filter.MinimumStock, term, filter.Offset, limit)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query listItemsQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Item, 0, initialItemsCapacity)
	for rows.Next() {
		item := models.Item{Attachments: []models.Attachment{}}
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.PriceCents, &item.Amount, &item.SellerID, &item.CreatedAt); err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan item in ListItems method: %s", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		postgresql.log.Sugar().Errorf("The last error encountered by Rows.Scan in ListItems method: %s", err)
		return nil, err
	}

	if len(items) == 0 {
		return items, nil
	}

	itemIDs := make([]int32, 0, len(items))
	position := make(map[int32]int, len(items))
	for i, item := range items {
		itemIDs = append(itemIDs, item.ID)
		position[item.ID] = i
	}

	attachments, err := postgresql.queryAttachments(ctx, postgresql.db, itemIDs)
	if err != nil {
		return nil, err
	}
	for _, attachment := range attachments {
		i := position[*attachment.ItemID]
		items[i].Attachments = append(items[i].Attachments, attachment)
	}
	return items, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (postgresql *PostgreSQL) queryAttachments(ctx context.Context, q queryer, itemIDs []int32) ([]models.Attachment, error) {
	rows, err := q.QueryContext(ctx, listAttachmentsQuery, itemIDs)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query listAttachmentsQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var attachment models.Attachment
		var itemID sql.NullInt32
		if err := rows.Scan(&attachment.ID, &attachment.FilePath, &attachment.ThumbnailPath, &itemID, &attachment.UploaderID, &attachment.UploadedAt); err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan attachment: %s", err)
			return nil, err
		}
		if itemID.Valid {
			id := itemID.Int32
			attachment.ItemID = &id
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}

// CreateItem stores a new listing and binds its attachments within a transaction.
func (postgresql *PostgreSQL) CreateItem(ctx context.Context, sellerID int32, newItem NewItem) (*models.Item, error) {
	tx, err := postgresql.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if len(newItem.Attachments) > 0 {
		rows, err := tx.QueryContext(ctx, lockAttachmentsQuery, newItem.Attachments, sellerID)
		if err != nil {
			postgresql.log.Sugar().Errorf("Failed to execute a query lockAttachmentsQuery: %s", err)
			return nil, err
		}
		available := 0
		for rows.Next() {
			available++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if available != len(newItem.Attachments) {
			return nil, ErrAttachmentsUnavailable
		}
	}

	item := &models.Item{
		Title:       newItem.Title,
		Description: newItem.Description,
		PriceCents:  newItem.PriceCents,
		Amount:      newItem.Amount,
		SellerID:    sellerID,
		Attachments: []models.Attachment{},
	}
	err = tx.QueryRowContext(ctx, createItemQuery, item.Title, item.Description, item.PriceCents, item.Amount, sellerID).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query createItemQuery: %s", err)
		return nil, err
	}

	if len(newItem.Attachments) > 0 {
		if _, err := tx.ExecContext(ctx, bindAttachmentsQuery, item.ID, newItem.Attachments); err != nil {
			postgresql.log.Sugar().Errorf("Failed to execute a query bindAttachmentsQuery: %s", err)
			return nil, err
		}
		attachments, err := postgresql.queryAttachments(ctx, tx, []int32{item.ID})
		if err != nil {
			return nil, err
		}
		item.Attachments = append(item.Attachments, attachments...)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateAttachment records an uploaded file that is not yet bound to an item.
func (postgresql *PostgreSQL) CreateAttachment(ctx context.Context, uploaderID int32, filePath, thumbnailPath string) (*models.Attachment, error) {
	attachment := &models.Attachment{
		FilePath:      filePath,
		ThumbnailPath: thumbnailPath,
		UploaderID:    uploaderID,
	}

	err := postgresql.db.QueryRowContext(ctx, createAttachmentQuery, filePath, thumbnailPath, uploaderID).
		Scan(&attachment.ID, &attachment.UploadedAt)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query createAttachmentQuery: %s", err)
		return nil, err
	}
	return attachment, nil
}

// BuyItem processes the purchase of an item by a user.
// It uses a transaction to update the stock, both balances and the transaction log.
func (postgresql *PostgreSQL) BuyItem(ctx context.Context, buyerID, itemID int32, amount int) error {
	tx, err := postgresql.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var priceCents, stock int
	var sellerID int32
	err = tx.QueryRowContext(ctx, lockItemQuery, itemID).Scan(&priceCents, &stock, &sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query lockItemQuery: %s", err)
		return err
	}
	if stock < amount {
		return ErrInsufficientStock
	}
	total := amount * priceCents

	if _, err := tx.ExecContext(ctx, updateStockQuery, amount, itemID); err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query updateStockQuery: %s", err)
		return classify(err)
	}
	if err := postgresql.moveMoney(ctx, tx, buyerID, sellerID, total); err != nil {
		return err
	}

	return tx.Commit()
}

// TransferMoney processes the transfer of money from one user to another.
func (postgresql *PostgreSQL) TransferMoney(ctx context.Context, payerID int32, recipient string, cents int) error {
	tx, err := postgresql.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var receiverID int32
	err = tx.QueryRowContext(ctx, getRecipientIDQuery, recipient).Scan(&receiverID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query getRecipientIDQuery: %s", err)
		return err
	}

	if err := postgresql.moveMoney(ctx, tx, payerID, receiverID, cents); err != nil {
		return err
	}

	return tx.Commit()
}

func (postgresql *PostgreSQL) moveMoney(ctx context.Context, tx *sql.Tx, payerID, receiverID int32, cents int) error {
	result, err := tx.ExecContext(ctx, updateBalanceQuery, -cents, payerID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to withdraw from payer: %s", err)
		return classify(err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, updateBalanceQuery, cents, receiverID); err != nil {
		postgresql.log.Sugar().Errorf("Failed to deposit to receiver: %s", err)
		return classify(err)
	}

	if _, err := tx.ExecContext(ctx, recordTransactionQuery, payerID, receiverID, cents); err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query recordTransactionQuery: %s", err)
		return err
	}
	return nil
}

// GetTransactions retrieves the transactions the user took part in, or all of them when userID is nil.
func (postgresql *PostgreSQL) GetTransactions(ctx context.Context, userID *int32) ([]models.Transaction, error) {
	var filter sql.NullInt32
	if userID != nil {
		filter = sql.NullInt32{Int32: *userID, Valid: true}
	}

	rows, err := postgresql.db.QueryContext(ctx, getTransactionsQuery, filter)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query getTransactionsQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0, initialHistoryCapacity)
	for rows.Next() {
		var tr models.Transaction
		if err := rows.Scan(&tr.ID, &tr.PayerID, &tr.ReceiverID, &tr.TransactedAt, &tr.AmountCents); err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan transaction in GetTransactions method: %s", err)
			return nil, err
		}
		transactions = append(transactions, tr)
	}
	if err := rows.Err(); err != nil {
		postgresql.log.Sugar().Errorf("The last error encountered by Rows.Scan in GetTransactions method: %s", err)
		return transactions, err
	}
	return transactions, nil
}

// Clear removes all data and restarts the id sequences.
func (postgresql *PostgreSQL) Clear(ctx context.Context) error {
	if _, err := postgresql.db.ExecContext(ctx, clearQuery); err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query clearQuery: %s", err)
		return err
	}
	return nil
}

// classify maps constraint violations onto the storage errors.
func classify(err error) error {
	var pgError *pgconn.PgError
	if !errors.As(err, &pgError) {
		return err
	}

	switch pgError.Code {
	case pgerrcode.UniqueViolation:
		return ErrUserExists
	case pgerrcode.CheckViolation:
		switch pgError.ConstraintName {
		case usersBalanceConstraint:
			return ErrInsufficientFunds
		case itemsAmountConstraint:
			return ErrInsufficientStock
		}
	}
	return err
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
