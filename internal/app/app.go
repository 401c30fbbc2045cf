// Package app provides the marketplace operations offered to the rest of the client.
// It handles authentication, user lookups, the item catalog, purchases, attachment
// uploads, money transfers, administration and field validation.
// Every request goes through an Executor; the operations that change who is logged
// in are the only writers of the session state the App was created with.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"market_client/internal/models"
	"market_client/internal/pkg/logger"
	"market_client/internal/session"

	"go.uber.org/zap"
)

// Predefined errors for requests rejected before anything is sent.
var (
	// ErrMissingUsernameOrPassword indicates that either the username or password is not provided.
	ErrMissingUsernameOrPassword = errors.New("app: missing username or password")
	// ErrMissingUsernameOrAmount indicates that either the recipient username or amount is not provided.
	ErrMissingUsernameOrAmount = errors.New("app: missing user or amount")
	// ErrInvalidAmount indicates a purchase of zero or fewer units.
	ErrInvalidAmount = errors.New("app: amount must be positive")
	// ErrInvalidValidationKind indicates a validation kind outside the supported set.
	ErrInvalidValidationKind = errors.New("app: invalid validation type")
)

// ValidationError is returned when the server rejects a validated value.
// Its message is the server's explanation.
type ValidationError struct {
	Kind    models.ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// validationOK is the literal body the validation endpoint answers with on success.
const validationOK = "OK"

// Executor performs single HTTP round trips against the API root.
// It is implemented by *transport.Executor.
type Executor interface {
	Do(ctx context.Context, method, path string, body, out any) error
	Raw(ctx context.Context, method, path string, body any) ([]byte, error)
	Text(ctx context.Context, method, path string, body any) (string, error)
	Upload(ctx context.Context, path, field, fileName string, r io.Reader, out any) error
}

// App encapsulates the marketplace operations and the dependencies they need.
type App struct {
	api     Executor       // Request executor bound to the API root.
	session *session.State // Session state kept in sync with the server.
	log     *logger.Logger // Logger for logging application events and errors.
}

// NewApp creates and returns a new instance of App with the provided executor, session state and logger.
func NewApp(api Executor, state *session.State, log *logger.Logger) *App {
	return &App{api: api, session: state, log: log}
}

// Session returns the session state the App keeps up to date.
func (app *App) Session() *session.State {
	return app.session
}

// Refresh re-fetches the current user and applies it to the session state.
// Failures are not returned: the session falls back to anonymous and ok is false.
func (app *App) Refresh(ctx context.Context) (user *models.User, ok bool) {
	ticket := app.session.Begin()

	var current models.User
	if err := app.api.Do(ctx, http.MethodPost, "/user", nil, &current); err != nil {
		app.log.Debug("identity refresh failed, session reset", zap.Error(err))
		app.session.Reset(ticket)
		return nil, false
	}

	if !app.session.ApplyIdentity(ticket, current) {
		app.log.Debug("identity refresh superseded by a newer session change",
			zap.String("username", current.Username))
	}
	return &current, true
}

// Login authenticates with the given credentials and marks the session as logged in.
// The balance is not part of the login response; call Refresh to obtain it.
func (app *App) Login(ctx context.Context, creds models.UserQuery) error {
	if creds.Username == "" || creds.Password == "" {
		return ErrMissingUsernameOrPassword
	}

	ticket := app.session.Begin()
	body, err := app.api.Raw(ctx, http.MethodPost, "/user/login", creds)
	if err != nil {
		return err
	}

	var resp models.LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		app.log.Debug("login response carries no admin flag", zap.Error(err))
	}

	app.session.ApplyLogin(ticket, creds.Username, resp.IsAdmin)
	app.log.Info("logged in", zap.String("username", creds.Username), zap.Bool("admin", resp.IsAdmin))
	return nil
}

// Logout ends the server session. The local session is reset once the server
// has answered, whether or not it accepted the request.
func (app *App) Logout(ctx context.Context) error {
	ticket := app.session.Begin()
	err := app.api.Do(ctx, http.MethodGet, "/user/logout", nil, nil)
	app.session.Reset(ticket)
	if err != nil {
		return err
	}

	app.log.Info("logged out")
	return nil
}

// Register creates a new account. It does not change the session state;
// call Login (or Refresh) afterwards.
func (app *App) Register(ctx context.Context, creds models.UserQuery) error {
	if creds.Username == "" || creds.Password == "" {
		return ErrMissingUsernameOrPassword
	}
	return app.api.Do(ctx, http.MethodPost, "/user/new", creds, nil)
}

// LookupUser retrieves the user ref refers to. Self sends no body.
func (app *App) LookupUser(ctx context.Context, ref models.UserRef) (*models.User, error) {
	var body any
	if query := ref.Query(); query != nil {
		body = query
	}

	var user models.User
	if err := app.api.Do(ctx, http.MethodPost, "/user", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DefaultItemQuery is the query used when ListItems is called without one:
// no search term, server-default paging, items without stock excluded.
func DefaultItemQuery() *models.ItemQuery {
	withoutStock := false
	return &models.ItemQuery{GetItemsWithoutStock: &withoutStock}
}

// ListItems returns the items for sale matching query. A nil query uses DefaultItemQuery.
func (app *App) ListItems(ctx context.Context, query *models.ItemQuery) ([]models.Item, error) {
	if query == nil {
		query = DefaultItemQuery()
	}

	var items []models.Item
	if err := app.api.Do(ctx, http.MethodPost, "/item/list", query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem lists a new item for sale. Referenced attachments must have been
// uploaded by the caller; the server rejects the listing otherwise.
func (app *App) CreateItem(ctx context.Context, query models.NewItemQuery) (*models.Item, error) {
	if query.Attachments == nil {
		query.Attachments = []int32{}
	}

	var item models.Item
	if err := app.api.Do(ctx, http.MethodPost, "/item/new", query, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UploadAttachment uploads a single file to be referenced later by CreateItem.
func (app *App) UploadAttachment(ctx context.Context, fileName string, r io.Reader) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := app.api.Upload(ctx, "/attachment/upload", "file", fileName, r, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// Buy purchases an amount of an item. The session balance is left untouched;
// it reflects the purchase after the next Refresh.
func (app *App) Buy(ctx context.Context, query models.BuyQuery) error {
	if query.Amount <= 0 {
		return ErrInvalidAmount
	}
	return app.api.Do(ctx, http.MethodPost, "/item/buy", query, nil)
}

// Promote grants admin status to userID, or to the caller when userID is nil.
// The server requires the caller to be an admin unless it runs in debug mode.
func (app *App) Promote(ctx context.Context, userID *int32) error {
	return app.api.Do(ctx, http.MethodPost, "/admin/promote", models.AdminPromoteQuery{UserID: userID}, nil)
}

// Give adds balance to a user, or to the caller when query.UserID is nil.
// The server requires the caller to be an admin unless it runs in debug mode.
func (app *App) Give(ctx context.Context, query models.AdminGiveQuery) error {
	return app.api.Do(ctx, http.MethodPost, "/admin/give", query, nil)
}

// Validate asks the server whether value is acceptable for kind. Unknown kinds are
// rejected without a request; a rejected value yields a *ValidationError.
func (app *App) Validate(ctx context.Context, kind models.ValidationKind, value string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidValidationKind, kind)
	}

	text, err := app.api.Text(ctx, http.MethodPost, "/validate/"+string(kind), models.ValidateQuery{Value: value})
	if err != nil {
		return err
	}
	if text != validationOK {
		return &ValidationError{Kind: kind, Message: text}
	}
	return nil
}

// Ping checks that the API is reachable and returns its greeting.
func (app *App) Ping(ctx context.Context) (string, error) {
	body, err := app.api.Raw(ctx, http.MethodGet, "/hello", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Transactions returns the transaction log selected by scope.
// Logs of other users are only served by a backend running in debug mode.
func (app *App) Transactions(ctx context.Context, scope models.LogScope) ([]models.Transaction, error) {
	var body any
	if query := scope.Query(); query != nil {
		body = query
	}

	var transactions []models.Transaction
	if err := app.api.Do(ctx, http.MethodPost, "/log", body, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// Transfer sends money from the caller to another user. Like Buy, it leaves
// the session balance to the next Refresh.
func (app *App) Transfer(ctx context.Context, query models.TransferQuery) error {
	if query.Recipient == "" || query.AmountCents == 0 {
		return ErrMissingUsernameOrAmount
	}
	if query.AmountCents < 0 {
		return ErrInvalidAmount
	}
	return app.api.Do(ctx, http.MethodPost, "/transfer", query, nil)
}

// ClearDatabase removes every user, item, attachment and transaction.
// Only a backend running in debug mode accepts it. The session is reset
// because the logged in account no longer exists.
func (app *App) ClearDatabase(ctx context.Context) error {
	ticket := app.session.Begin()
	if err := app.api.Do(ctx, http.MethodGet, "/admin/db/clear", nil, nil); err != nil {
		return err
	}

	app.session.Reset(ticket)
	app.log.Info("backend data cleared")
	return nil
}
