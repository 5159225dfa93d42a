package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/emulator/internal/store"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/akaunting"
)

const defaultLimit = 25

// ResourcesHandler handles the Akaunting resource endpoints.
type ResourcesHandler struct {
	store *store.Store
}

// NewResourcesHandler creates a new ResourcesHandler.
func NewResourcesHandler(s *store.Store) *ResourcesHandler {
	return &ResourcesHandler{store: s}
}

// Ping handles GET /api/ping.
// @Summary Check the API
// @Description Answers ok when credentials and company are valid
// @Tags ping
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Success 200 {object} map[string]any
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Router /ping [get]
// @Security BasicAuth
func (h *ResourcesHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListAccounts handles GET /api/accounts.
// @Summary List accounts
// @Description Get one page of bank accounts
// @Tags accounts
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param limit query int false "Page size (default 25)"
// @Param page query int false "Page number"
// @Success 200 {object} akaunting.ListResponse[akaunting.Account]
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /accounts [get]
// @Security BasicAuth
func (h *ResourcesHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts()
	writeList(w, r, accounts, err)
}

// ListItems handles GET /api/items.
// @Summary List items
// @Description Get one page of items
// @Tags items
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param limit query int false "Page size (default 25)"
// @Param page query int false "Page number"
// @Success 200 {object} akaunting.ListResponse[akaunting.Item]
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /items [get]
// @Security BasicAuth
func (h *ResourcesHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems()
	writeList(w, r, items, err)
}

// ListCategories handles GET /api/categories.
// @Summary List categories
// @Description Get one page of categories, optionally filtered by type
// @Tags categories
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param search query string false "Filter such as type:customer"
// @Param limit query int false "Page size (default 25)"
// @Param page query int false "Page number"
// @Success 200 {object} akaunting.ListResponse[akaunting.Category]
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /categories [get]
// @Security BasicAuth
func (h *ResourcesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(searchField(r, "type"))
	writeList(w, r, categories, err)
}

// ListContacts handles GET /api/contacts.
// @Summary List contacts
// @Description Get one page of customers or vendors
// @Tags contacts
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param search query string false "Filter such as type:customer"
// @Param limit query int false "Page size (default 25)"
// @Param page query int false "Page number"
// @Success 200 {object} akaunting.ListResponse[akaunting.Contact]
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /contacts [get]
// @Security BasicAuth
func (h *ResourcesHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.ListContacts(searchField(r, "type"))
	writeList(w, r, contacts, err)
}

// ListDocuments handles GET /api/documents.
// @Summary List documents
// @Description Get one page of invoices or bills
// @Tags documents
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param search query string false "Filter such as type:customer"
// @Param limit query int false "Page size (default 25)"
// @Param page query int false "Page number"
// @Success 200 {object} akaunting.ListResponse[akaunting.Document]
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /documents [get]
// @Security BasicAuth
func (h *ResourcesHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := h.store.ListDocuments(searchField(r, "type"))
	writeList(w, r, documents, err)
}

// ListTransactions handles GET /api/transactions.
// @Summary List transactions
// @Description Get one page of incomes or expenses
// @Tags transactions
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param search query string false "Filter such as type:customer"
// @Param limit query int false "Page size (default 25)"
// @Param page query int false "Page number"
// @Success 200 {object} akaunting.ListResponse[akaunting.Transaction]
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /transactions [get]
// @Security BasicAuth
func (h *ResourcesHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.store.ListTransactions(searchField(r, "type"))
	writeList(w, r, transactions, err)
}

// CreateAccount handles POST /api/accounts.
// @Summary Create account
// @Description Create a bank account; account numbers are unique
// @Tags accounts
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param request body akaunting.AccountBody true "Request body"
// @Success 201 {object} akaunting.ItemResponse[akaunting.Account]
// @Failure 400 {object} akaunting.ErrorResponse
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 422 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /accounts [post]
// @Security BasicAuth
func (h *ResourcesHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req akaunting.AccountBody
	if !decode(w, r, &req) {
		return
	}

	account, err := h.store.CreateAccount(req)
	writeCreated(w, account, err)
}

// CreateCategory handles POST /api/categories.
// @Summary Create category
// @Description Create a category; names are unique per type
// @Tags categories
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param request body akaunting.CategoryBody true "Request body"
// @Success 201 {object} akaunting.ItemResponse[akaunting.Category]
// @Failure 400 {object} akaunting.ErrorResponse
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 422 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /categories [post]
// @Security BasicAuth
func (h *ResourcesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req akaunting.CategoryBody
	if !decode(w, r, &req) {
		return
	}

	category, err := h.store.CreateCategory(req)
	writeCreated(w, category, err)
}

// CreateContact handles POST /api/contacts.
// @Summary Create contact
// @Description Create a customer or vendor; emails are unique per type
// @Tags contacts
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param request body akaunting.ContactBody true "Request body"
// @Success 201 {object} akaunting.ItemResponse[akaunting.Contact]
// @Failure 400 {object} akaunting.ErrorResponse
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 422 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /contacts [post]
// @Security BasicAuth
func (h *ResourcesHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req akaunting.ContactBody
	if !decode(w, r, &req) {
		return
	}

	contact, err := h.store.CreateContact(req)
	writeCreated(w, contact, err)
}

// CreateDocument handles POST /api/documents.
// @Summary Create document
// @Description Create an invoice or bill; document numbers are unique per type
// @Tags documents
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param request body akaunting.DocumentBody true "Request body"
// @Success 201 {object} akaunting.ItemResponse[akaunting.Document]
// @Failure 400 {object} akaunting.ErrorResponse
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 422 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /documents [post]
// @Security BasicAuth
func (h *ResourcesHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req akaunting.DocumentBody
	if !decode(w, r, &req) {
		return
	}

	document, err := h.store.CreateDocument(req)
	writeCreated(w, document, err)
}

// CreateTransaction handles POST /api/transactions.
// @Summary Create transaction
// @Description Create an income or expense
// @Tags transactions
// @Accept json
// @Produce json
// @Param company_id query int true "Company ID"
// @Param request body akaunting.TransactionBody true "Request body"
// @Success 201 {object} akaunting.ItemResponse[akaunting.Transaction]
// @Failure 400 {object} akaunting.ErrorResponse
// @Failure 401 {object} akaunting.ErrorResponse
// @Failure 403 {object} akaunting.ErrorResponse
// @Failure 422 {object} akaunting.ErrorResponse
// @Failure 500 {object} akaunting.ErrorResponse
// @Router /transactions [post]
// @Security BasicAuth
func (h *ResourcesHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req akaunting.TransactionBody
	if !decode(w, r, &req) {
		return
	}

	transaction, err := h.store.CreateTransaction(req)
	writeCreated(w, transaction, err)
}

// searchField extracts key from a search query such as "type:customer".
func searchField(r *http.Request, key string) string {
	for _, term := range strings.Fields(r.URL.Query().Get("search")) {
		if k, v, ok := strings.Cut(term, ":"); ok && k == key {
			return v
		}
	}
	return ""
}

// writeList writes one page of records with Akaunting pagination metadata.
func writeList[T any](w http.ResponseWriter, r *http.Request, records []T, err error) {
	if err != nil {
		slog.Error("Failed to list records", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list records", nil)
		return
	}

	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid limit", nil)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid page", nil)
		return
	}

	total := len(records)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	writeJSON(w, http.StatusOK, akaunting.ListResponse[T]{
		Data: records[start:end],
		Meta: &akaunting.Meta{Pagination: akaunting.Pagination{
			Total:       total,
			Count:       end - start,
			PerPage:     limit,
			CurrentPage: page,
			TotalPages:  max(1, (total+limit-1)/limit),
		}},
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return n, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Failed to parse request body", nil)
		return false
	}
	return true
}

func writeCreated[T any](w http.ResponseWriter, record *T, err error) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		writeJSONError(w, http.StatusUnprocessableEntity, "The given data was invalid.", map[string][]string{
			verr.Field: {verr.Message},
		})
		return
	}
	if err != nil {
		slog.Error("Failed to create record", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to create record", nil)
		return
	}

	writeJSON(w, http.StatusCreated, akaunting.ItemResponse[T]{Data: *record})
}
