package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pigeonworks-llc/akaunting-sync/emulator/internal/store"
)

// NewRouter builds the emulator router for one company.
func NewRouter(st *store.Store, creds Credentials) http.Handler {
	resources := NewResourcesHandler(st)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API endpoints (authentication required).
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(creds))
		r.Use(CompanyMiddleware(st.CompanyID()))

		r.Get("/ping", resources.Ping)
		r.Get("/items", resources.ListItems)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", resources.ListAccounts)
			r.Post("/", resources.CreateAccount)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", resources.ListCategories)
			r.Post("/", resources.CreateCategory)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", resources.ListContacts)
			r.Post("/", resources.CreateContact)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", resources.ListDocuments)
			r.Post("/", resources.CreateDocument)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", resources.ListTransactions)
			r.Post("/", resources.CreateTransaction)
		})
	})

	// Health check endpoint.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
