package service

import (
	"market_client/internal/pkg/auth"
	"market_client/internal/pkg/logger"
	"market_client/internal/storage"

	"github.com/go-chi/chi/v5"
)

// Options configures the behaviour of the stub service.
type Options struct {
	SessionSecret []byte // Key signing the session cookies.
	PublicDir     string // Directory receiving uploaded attachments.
	Debug         bool   // Enables debug-only endpoints and lifts the admin requirement.
}

// Service encapsulates the HTTP server configuration, including the storage backing the stub,
// HTTP handlers, the server's run address, and a logger for event and error logging.
type Service struct {
	handlers   *handlers
	opts       Options
	runAddress string
	log        *logger.Logger
}

// NewService creates and initializes a new Service instance.
// It sets up the handlers using the provided storage, options and logger,
// and configures the server's run address.
func NewService(store storage.Storage, opts Options, runAddress string, l *logger.Logger) *Service {
	handlers := newHandlers(store, opts, l)
	return &Service{handlers: handlers, opts: opts, runAddress: runAddress, log: l}
}

// RunAddress returns the address the service is meant to listen on.
func (service *Service) RunAddress() string {
	return service.runAddress
}

// NewRouter sets up and returns a new chi.Router instance with the necessary middleware and routes.
// Every route lives under /api. Logging and session middleware are applied globally; handlers
// requiring a login check for it themselves so they can answer with the backend's messages.
func (service *Service) NewRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(service.log.WithLogging())
	router.Route("/api", func(r chi.Router) {
		r.Use(auth.SessionMiddleware(service.opts.SessionSecret))

		r.Get("/hello", service.handlers.helloHandler)

		r.Post("/user", service.handlers.userHandler)
		r.Post("/user/new", service.handlers.registerHandler)
		r.Post("/user/login", service.handlers.loginHandler)
		r.Get("/user/logout", service.handlers.logoutHandler)

		r.Post("/item/list", service.handlers.listItemsHandler)
		r.Post("/item/new", service.handlers.newItemHandler)
		r.Post("/item/buy", service.handlers.buyItemHandler)
		r.Post("/attachment/upload", service.handlers.uploadHandler)

		r.Post("/log", service.handlers.transactionsHandler)
		r.Post("/transfer", service.handlers.transferHandler)

		r.Post("/admin/promote", service.handlers.promoteHandler)
		r.Post("/admin/give", service.handlers.giveHandler)
		r.Get("/admin/db/clear", service.handlers.clearHandler)

		r.Post("/validate/{kind}", service.handlers.validateHandler)
	})
	return router
}
