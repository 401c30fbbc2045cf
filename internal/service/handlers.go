// Package service contains the HTTP handlers of the stub marketplace service.
// The stub implements the marketplace API on top of a storage.Storage so the client
// can be developed and tested without the real backend. Handlers parse requests,
// apply the backend's input rules, call the storage and answer with JSON records or
// plain-text messages, the way the real backend does.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"market_client/internal/models"
	"market_client/internal/pkg/auth"
	"market_client/internal/pkg/currency"
	"market_client/internal/pkg/logger"
	"market_client/internal/pkg/security"
	"market_client/internal/storage"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "golang.org/x/image/webp"
)

const requestTimeout = 10 * time.Second

// Item listing rules.
const (
	defaultItemsOffset  = 0
	defaultItemsLimit   = 20
	minItemsLimit       = 1
	maxItemsLimit       = 100
	maxSearchTermLength = 50
	maxTitleLength      = 50
	maxDescriptionLen   = 500
	maxItemAmount       = 50
	minPriceCents       = 1
	maxPriceCents       = 15_00
	maxAttachments      = 5
	maxUploadSize       = 10 << 20
)

// Thumbnail rules. Thumbnails are always JPEG.
const (
	thumbnailSize      = 320
	thumbnailQuality   = 50
	thumbnailExtension = "jpg"
	maxImageResolution = 10_000
)

var errImageTooLarge = errors.New("image exceeds the maximum resolution")

var uploadExtensions = []string{"jpg", "jpeg", "png", "webp"}

const (
	msgOK              = "OK"
	msgNotLoggedIn     = "Not logged in"
	msgUserNotFound    = "User not found"
	msgDebugOnly       = "Feature only available in debug builds"
	msgAdminRequired   = "Admin privileges required"
	msgIncorrectLogin  = "Incorrect login"
	msgUserRegistered  = "User already registered"
	msgMissingCreds    = "Missing username or password"
	msgInvalidPrice    = "Price must be in decimal format with cents, i.e 9.95"
	msgInvalidUserBody = "Expected a body of the form {\"Username\": name} or {\"UserId\": id}"
)

// handlers aggregates dependencies needed by HTTP handlers,
// including the storage, the stub options and logger.
type handlers struct {
	store storage.Storage
	opts  Options
	log   *logger.Logger
}

// newHandlers initializes a new handlers instance with the provided dependencies.
func newHandlers(store storage.Storage, opts Options, l *logger.Logger) *handlers {
	return &handlers{store: store, opts: opts, log: l}
}

// helloHandler answers the liveness probe.
func (handlers *handlers) helloHandler(res http.ResponseWriter, req *http.Request) {
	writeText(res, "Hello world!", http.StatusOK)
}

// registerHandler creates a new account and logs it in.
func (handlers *handlers) registerHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var query models.UserQuery
	if err := decodeJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}
	if query.Username == "" || query.Password == "" {
		writeText(res, msgMissingCreds, http.StatusBadRequest)
		return
	}
	if len(strings.Fields(query.Username)) > 1 {
		writeText(res, "No whitespace allowed in username", http.StatusBadRequest)
		return
	}

	passwordHash, err := security.HashPassword(query.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			writeText(res, "Password is too long", http.StatusBadRequest)
			return
		}
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}

	user, err := handlers.store.CreateUser(ctx, query.Username, passwordHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			writeText(res, msgUserRegistered, http.StatusBadRequest)
			return
		}
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := auth.SetSessionCookie(res, user.ID, handlers.opts.SessionSecret); err != nil {
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeText(res, msgOK, http.StatusOK)
}

// loginHandler checks the credentials, issues the session cookie and reports the admin flag.
func (handlers *handlers) loginHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var query models.UserQuery
	if err := decodeJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}

	user, passwordHash, err := handlers.store.GetCredentials(ctx, query.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeText(res, msgIncorrectLogin, http.StatusUnauthorized)
			return
		}
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := security.CheckPassword(passwordHash, query.Password); err != nil {
		writeText(res, msgIncorrectLogin, http.StatusUnauthorized)
		return
	}

	if err := auth.SetSessionCookie(res, user.ID, handlers.opts.SessionSecret); err != nil {
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, models.LoginResponse{IsAdmin: user.IsAdmin})
}

// logoutHandler drops the session cookie. It fails when no one is logged in.
func (handlers *handlers) logoutHandler(res http.ResponseWriter, req *http.Request) {
	if _, ok := auth.UserID(req.Context()); !ok {
		writeText(res, msgNotLoggedIn, http.StatusUnauthorized)
		return
	}

	auth.ClearSessionCookie(res)
	writeText(res, msgOK, http.StatusOK)
}

// userHandler returns a user by id or username, or the logged in user when no body is sent.
func (handlers *handlers) userHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var query models.GetUserQuery
	present, err := decodeOptionalJSON(req, &query)
	if err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}

	var user *models.User
	switch {
	case !present:
		userID, ok := requireLogin(res, req)
		if !ok {
			return
		}
		user, err = handlers.store.GetUser(ctx, userID)
	case query.UserID != nil:
		user, err = handlers.store.GetUser(ctx, *query.UserID)
	case query.Username != nil:
		user, err = handlers.store.GetUserByName(ctx, *query.Username)
	default:
		writeText(res, msgInvalidUserBody, http.StatusBadRequest)
		return
	}

	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeText(res, msgUserNotFound, http.StatusBadRequest)
			return
		}
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, user)
}

// listItemsHandler returns the items for sale. Absent query fields take the defaults:
// offset 0, limit 20 and in-stock items only.
func (handlers *handlers) listItemsHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var query models.ItemQuery
	if _, err := decodeOptionalJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}

	filter := storage.ItemFilter{Offset: defaultItemsOffset, Limit: defaultItemsLimit, MinimumStock: 1}
	if query.SearchTerm != nil {
		if len(*query.SearchTerm) > maxSearchTermLength {
			writeText(res, "Search term too long", http.StatusBadRequest)
			return
		}
		filter.SearchTerm = *query.SearchTerm
	}
	if query.Offset != nil {
		if *query.Offset < 0 {
			writeText(res, "Offset must be at least 0", http.StatusBadRequest)
			return
		}
		filter.Offset = *query.Offset
	}
	if query.Limit != nil {
		if *query.Limit < minItemsLimit || *query.Limit > maxItemsLimit {
			writeText(res, fmt.Sprintf("Limit must be at least %d and at max %d", minItemsLimit, maxItemsLimit), http.StatusBadRequest)
			return
		}
		filter.Limit = *query.Limit
	}
	if query.GetItemsWithoutStock != nil && *query.GetItemsWithoutStock {
		filter.MinimumStock = 0
	}

	items, err := handlers.store.ListItems(ctx, filter)
	if err != nil {
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, items)
}

// newItemHandler lists a new item for sale and binds the referenced attachments to it.
func (handlers *handlers) newItemHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	sellerID, ok := requireLogin(res, req)
	if !ok {
		return
	}

	var query models.NewItemQuery
	if err := decodeJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}

	newItem, msg := parseNewItem(query)
	if msg != "" {
		writeText(res, msg, http.StatusBadRequest)
		return
	}

	item, err := handlers.store.CreateItem(ctx, sellerID, newItem)
	if err != nil {
		if errors.Is(err, storage.ErrAttachmentsUnavailable) {
			ids := make([]string, 0, len(newItem.Attachments))
			for _, id := range newItem.Attachments {
				ids = append(ids, strconv.Itoa(int(id)))
			}
			writeText(res, fmt.Sprintf("Following attachments could not be used: %s. Try uploading them again.",
				strings.Join(ids, ", ")), http.StatusBadRequest)
			return
		}
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, item)
}

// parseNewItem applies the listing rules. It returns a message for the first violated rule.
func parseNewItem(query models.NewItemQuery) (storage.NewItem, string) {
	title := strings.TrimSpace(query.Title)
	if len(title) > maxTitleLength {
		return storage.NewItem{}, fmt.Sprintf("Title can be at most %d characters long", maxTitleLength)
	}
	description := strings.TrimSpace(query.Description)
	if len(description) > maxDescriptionLen {
		return storage.NewItem{}, fmt.Sprintf("Description can be at most %d characters long", maxDescriptionLen)
	}
	if query.Amount < 1 || query.Amount >= maxItemAmount {
		return storage.NewItem{}, fmt.Sprintf("Amount must be at least 1 and at most %d", maxItemAmount)
	}

	if query.Price == "" || validateCurrency(query.Price) != "" {
		return storage.NewItem{}, msgInvalidPrice
	}
	priceCents, err := currency.ParseCents(query.Price)
	if err != nil {
		return storage.NewItem{}, msgInvalidPrice
	}
	if priceCents < minPriceCents || priceCents > maxPriceCents {
		return storage.NewItem{}, fmt.Sprintf("Price must be at least %d cents and at most %d cents", minPriceCents, maxPriceCents)
	}

	seen := make(map[int32]struct{}, len(query.Attachments))
	attachments := make([]int32, 0, len(query.Attachments))
	for _, id := range query.Attachments {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		attachments = append(attachments, id)
	}
	if len(attachments) > maxAttachments {
		return storage.NewItem{}, fmt.Sprintf("Amount of attachments can be at most %d", maxAttachments)
	}

	return storage.NewItem{
		Title:       title,
		Description: description,
		Amount:      query.Amount,
		PriceCents:  priceCents,
		Attachments: attachments,
	}, ""
}

// buyRequest mirrors models.BuyQuery with an optional amount, which defaults to one unit.
type buyRequest struct {
	ItemID int32 `json:"item_id"`
	Amount *int  `json:"amount"`
}

// buyItemHandler processes requests to purchase an item. The buyer pays the seller.
func (handlers *handlers) buyItemHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	buyerID, ok := requireLogin(res, req)
	if !ok {
		return
	}

	var query buyRequest
	if err := decodeJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}
	amount := 1
	if query.Amount != nil {
		amount = *query.Amount
	}
	if amount < 1 {
		writeText(res, "Amount must be at least 1", http.StatusBadRequest)
		return
	}

	err := handlers.store.BuyItem(ctx, buyerID, query.ItemID, amount)
	switch {
	case err == nil:
		writeText(res, msgOK, http.StatusOK)
	case errors.Is(err, storage.ErrItemNotFound):
		writeText(res, "Item not found", http.StatusBadRequest)
	case errors.Is(err, storage.ErrInsufficientStock):
		writeText(res, "Not enough item in stock", http.StatusBadRequest)
	case errors.Is(err, storage.ErrUserNotFound):
		writeText(res, "Your user does not exist", http.StatusBadRequest)
	case errors.Is(err, storage.ErrInsufficientFunds):
		writeText(res, "You don't have enough balance on your account", http.StatusBadRequest)
	default:
		writeText(res, err.Error(), http.StatusInternalServerError)
	}
}

// uploadHandler stores an uploaded image under the public directory and records it
// as an attachment not yet bound to an item.
func (handlers *handlers) uploadHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	uploaderID, ok := requireLogin(res, req)
	if !ok {
		return
	}

	req.Body = http.MaxBytesReader(res, req.Body, maxUploadSize)
	file, header, err := req.FormFile("file")
	if err != nil {
		writeText(res, fmt.Sprintf("Could not read the uploaded file: %s", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if extension == "" {
		writeText(res, "File name does not contain extension", http.StatusBadRequest)
		return
	}
	if !acceptedExtension(extension) {
		writeText(res, fmt.Sprintf("Bad file extension. Accepted extensions are: %v", uploadExtensions), http.StatusBadRequest)
		return
	}

	contents, err := io.ReadAll(file)
	if err != nil {
		writeText(res, fmt.Sprintf("Could not read the uploaded file: %s", err), http.StatusBadRequest)
		return
	}
	thumbnail, err := makeThumbnail(contents)
	if err != nil {
		handlers.log.Sugar().Debugf("Rejected upload %s: %s", header.Filename, err)
		writeText(res, fmt.Sprintf("Could not decode %s. Uploaded image might be too large or corrupted.", header.Filename), http.StatusBadRequest)
		return
	}

	name := uuid.NewString()
	filePath := filepath.Join(handlers.opts.PublicDir, name+"."+extension)
	thumbnailPath := filepath.Join(handlers.opts.PublicDir, name+".thumb."+thumbnailExtension)
	if err := storeUpload(contents, thumbnail, filePath, thumbnailPath); err != nil {
		handlers.log.Sugar().Errorf("Failed to store upload %s: %s", header.Filename, err)
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}

	attachment, err := handlers.store.CreateAttachment(ctx, uploaderID, filePath, thumbnailPath)
	if err != nil {
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, attachment)
}

func acceptedExtension(extension string) bool {
	for _, accepted := range uploadExtensions {
		if extension == accepted {
			return true
		}
	}
	return false
}

// makeThumbnail decodes an uploaded image and returns a JPEG scaled to fit
// thumbnailSize on both sides. Images larger than maxImageResolution are
// rejected before their pixels are decoded.
func makeThumbnail(contents []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(contents))
	if err != nil {
		return nil, err
	}
	if cfg.Width > maxImageResolution || cfg.Height > maxImageResolution {
		return nil, errImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(contents), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	var thumbnail bytes.Buffer
	fitted := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	if err := imaging.Encode(&thumbnail, fitted, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, err
	}
	return thumbnail.Bytes(), nil
}

// storeUpload writes the thumbnail first and the original last, so a stored
// original always has its thumbnail.
func storeUpload(contents, thumbnail []byte, filePath, thumbnailPath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(thumbnailPath, thumbnail, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filePath, contents, 0o644)
}

// transactionsHandler returns the transaction log of the logged in user. Logs of
// other users or of everyone are only served in debug mode.
func (handlers *handlers) transactionsHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var query models.LogQuery
	present, err := decodeOptionalJSON(req, &query)
	if err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}

	var userID *int32
	if present {
		if !handlers.opts.Debug {
			writeText(res, msgDebugOnly, http.StatusNotFound)
			return
		}
		if query.UserID != nil {
			if _, err := handlers.store.GetUser(ctx, *query.UserID); err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					writeText(res, msgUserNotFound, http.StatusBadRequest)
					return
				}
				writeText(res, err.Error(), http.StatusInternalServerError)
				return
			}
			userID = query.UserID
		}
	} else {
		current, ok := requireLogin(res, req)
		if !ok {
			return
		}
		userID = &current
	}

	transactions, err := handlers.store.GetTransactions(ctx, userID)
	if err != nil {
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, transactions)
}

// transferHandler moves money from the logged in user to the named recipient.
func (handlers *handlers) transferHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	payerID, ok := requireLogin(res, req)
	if !ok {
		return
	}

	var query models.TransferQuery
	if err := decodeJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}
	if query.AmountCents <= 0 {
		writeText(res, "Amount must be positive", http.StatusBadRequest)
		return
	}

	err := handlers.store.TransferMoney(ctx, payerID, query.Recipient, query.AmountCents)
	switch {
	case err == nil:
		writeText(res, msgOK, http.StatusOK)
	case errors.Is(err, storage.ErrInsufficientFunds):
		writeText(res, "Insufficient funds", http.StatusBadRequest)
	case errors.Is(err, storage.ErrUserNotFound):
		writeText(res, "Recipient does not exist", http.StatusBadRequest)
	default:
		writeText(res, err.Error(), http.StatusInternalServerError)
	}
}

// promoteHandler grants admin status to the given user, or to the caller.
func (handlers *handlers) promoteHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if !handlers.authorizeAdmin(ctx, res, req) {
		return
	}

	var query models.AdminPromoteQuery
	if _, err := decodeOptionalJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}
	userID, ok := targetUser(res, req, query.UserID)
	if !ok {
		return
	}

	if err := handlers.store.SetAdmin(ctx, userID); err != nil {
		handlers.writeUserError(res, err)
		return
	}
	writeText(res, msgOK, http.StatusOK)
}

// giveHandler adds balance to the given user, or to the caller.
func (handlers *handlers) giveHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if !handlers.authorizeAdmin(ctx, res, req) {
		return
	}

	var query models.AdminGiveQuery
	if err := decodeJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}
	userID, ok := targetUser(res, req, query.UserID)
	if !ok {
		return
	}

	if err := handlers.store.AddBalance(ctx, userID, query.AmountCents); err != nil {
		if errors.Is(err, storage.ErrInsufficientFunds) {
			writeText(res, "Balance cannot go below zero", http.StatusBadRequest)
			return
		}
		handlers.writeUserError(res, err)
		return
	}
	writeText(res, msgOK, http.StatusOK)
}

// clearHandler removes all data. It is only served in debug mode.
func (handlers *handlers) clearHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if !handlers.opts.Debug {
		writeText(res, msgDebugOnly, http.StatusNotFound)
		return
	}

	if err := handlers.store.Clear(ctx); err != nil {
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}
	handlers.log.Info("stub data cleared")
	auth.ClearSessionCookie(res)
	writeText(res, msgOK, http.StatusOK)
}

// validateHandler checks a single form value. It answers "OK" when the value is
// acceptable and the reason otherwise.
func (handlers *handlers) validateHandler(res http.ResponseWriter, req *http.Request) {
	kind := models.ValidationKind(chi.URLParam(req, "kind"))
	rule, ok := validators[kind]
	if !ok {
		writeText(res, fmt.Sprintf("Unknown validation type %q", kind), http.StatusNotFound)
		return
	}

	var query models.ValidateQuery
	if err := decodeJSON(req, &query); err != nil {
		writeText(res, err.Error(), http.StatusBadRequest)
		return
	}

	if msg := rule(query.Value); msg != "" {
		writeText(res, msg, http.StatusBadRequest)
		return
	}
	writeText(res, msgOK, http.StatusOK)
}

// authorizeAdmin lets the request through in debug mode or when the caller is an admin.
func (handlers *handlers) authorizeAdmin(ctx context.Context, res http.ResponseWriter, req *http.Request) bool {
	if handlers.opts.Debug {
		return true
	}

	userID, ok := requireLogin(res, req)
	if !ok {
		return false
	}
	user, err := handlers.store.GetUser(ctx, userID)
	if err != nil {
		handlers.writeUserError(res, err)
		return false
	}
	if !user.IsAdmin {
		writeText(res, msgAdminRequired, http.StatusForbidden)
		return false
	}
	return true
}

func (handlers *handlers) writeUserError(res http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrUserNotFound) {
		writeText(res, msgUserNotFound, http.StatusBadRequest)
		return
	}
	writeText(res, err.Error(), http.StatusInternalServerError)
}

// targetUser resolves an optional user id to the caller when it is nil.
func targetUser(res http.ResponseWriter, req *http.Request, userID *int32) (int32, bool) {
	if userID != nil {
		return *userID, true
	}
	return requireLogin(res, req)
}

// requireLogin returns the logged in user's id, answering 401 when there is none.
func requireLogin(res http.ResponseWriter, req *http.Request) (int32, bool) {
	userID, ok := auth.UserID(req.Context())
	if !ok {
		writeText(res, msgNotLoggedIn, http.StatusUnauthorized)
	}
	return userID, ok
}

func decodeJSON(req *http.Request, v any) error {
	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(requestBody, v)
}

// decodeOptionalJSON decodes the request body into v. An empty body is not an
// error; present reports whether there was one.
func decodeOptionalJSON(req *http.Request, v any) (present bool, err error) {
	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(requestBody)) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(requestBody, v)
}

func writeJSON(res http.ResponseWriter, v any) {
	result, err := json.Marshal(v)
	if err != nil {
		writeText(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)
	res.Write(result)
}

func writeText(res http.ResponseWriter, text string, statusCode int) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(statusCode)
	io.WriteString(res, text)
}
