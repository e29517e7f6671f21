package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ruralbites/m/domain"
	"ruralbites/m/internal/billing"
	"ruralbites/m/internal/catalog"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	engine     *billing.Engine
	catalog    *catalog.Catalog
	secret     string
	staffUser  string
	staffHash  []byte
	sessionTTL time.Duration
}

// New constructs a Handler. The staff password is hashed once here so the
// plaintext never sits on the handler.
func New(engine *billing.Engine, cat *catalog.Catalog, secret, staffUser, staffPassword string, sessionTTL time.Duration) *Handler {
	hash, err := bcrypt.GenerateFromPassword([]byte(staffPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("unable to secure staff password: %v", err)
	}
	return &Handler{
		engine:     engine,
		catalog:    cat,
		secret:     secret,
		staffUser:  strings.ToLower(strings.TrimSpace(staffUser)),
		staffHash:  hash,
		sessionTTL: sessionTTL,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Get("/menu", h.listMenu)

		pr.Route("/tables", func(r chi.Router) {
			r.Get("/", h.listTables)
			r.Get("/{id}", h.getTable)
			r.Get("/{id}/order", h.getOrder)
			r.Post("/{id}/order/items", h.adjustItem)
			r.Post("/{id}/order/quick-add", h.quickAdd)
			r.Post("/{id}/checkout", h.checkout)
		})

		pr.Get("/history", h.listHistory)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(username string) (string, error) {
	claims := sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "session expired or invalid")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	password := strings.TrimSpace(req.Password)
	if username != h.staffUser || bcrypt.CompareHashAndPassword(h.staffHash, []byte(password)) != nil {
		respondError(w, http.StatusUnauthorized, "the username or password does not match our records")
		return
	}

	token, err := h.generateToken(username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"username":   username,
		"expires_at": time.Now().Add(h.sessionTTL).Unix(),
	})
}

// Menu

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	items := h.catalog.Items(category, query)
	if items == nil {
		items = []domain.MenuItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// Tables

type tableOverview struct {
	domain.Table
	Status       string `json:"status"`
	PendingItems int64  `json:"pending_items"`
	LastBilled   int64  `json:"last_billed"`
	LastBilledAt int64  `json:"last_billed_at,omitempty"`
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables := h.catalog.Tables()
	overview := make([]tableOverview, 0, len(tables))
	for _, table := range tables {
		row := tableOverview{Table: table, Status: "free"}

		draft, ok, err := h.engine.Draft(table.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to read table drafts")
			return
		}
		if ok && !draft.Empty() {
			row.Status = "occupied"
			for _, qty := range draft.Items {
				row.PendingItems += qty
			}
		}

		entry, ok, err := h.engine.LatestForTable(table.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to read billing history")
			return
		}
		if ok {
			row.LastBilled = entry.Totals.GrandTotal
			row.LastBilledAt = entry.Timestamp
		}

		overview = append(overview, row)
	}
	respondJSON(w, http.StatusOK, overview)
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	table, found := h.catalog.Table(id)
	if !found {
		respondError(w, http.StatusNotFound, "table not found")
		return
	}
	respondJSON(w, http.StatusOK, table)
}

// Order surface

type orderResponse struct {
	Mode          billing.Mode     `json:"mode"`
	Items         map[string]int64 `json:"items"`
	Order         []string         `json:"order"`
	Discount      int64            `json:"discount"`
	CustomerName  string           `json:"customer_name,omitempty"`
	CustomerPhone string           `json:"customer_phone,omitempty"`
	Totals        domain.Totals    `json:"totals"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	session, err := h.engine.Hydrate(id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orderResponse{
		Mode:          session.Mode,
		Items:         session.Items,
		Order:         session.Order,
		Discount:      session.Discount,
		CustomerName:  session.CustomerName,
		CustomerPhone: session.CustomerPhone,
		Totals:        billing.ComputeTotals(session.Items, h.catalog, session.Discount),
	})
}

type adjustRequest struct {
	ItemID string `json:"item_id"`
	Delta  int64  `json:"delta"`
}

func (h *Handler) adjustItem(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ItemID == "" || req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "item_id and a non-zero delta are required")
		return
	}
	if _, found := h.catalog.Item(req.ItemID); !found {
		respondError(w, http.StatusBadRequest, "unknown menu item")
		return
	}
	if err := h.engine.AdjustQuantity(id, req.ItemID, req.Delta); err != nil {
		respondEngineError(w, err)
		return
	}
	h.respondDraft(w, id)
}

type quickAddRequest struct {
	ItemID string `json:"item_id"`
}

func (h *Handler) quickAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var req quickAddRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	if _, found := h.catalog.Item(req.ItemID); !found {
		respondError(w, http.StatusBadRequest, "unknown menu item")
		return
	}
	if err := h.engine.AddItem(id, req.ItemID); err != nil {
		respondEngineError(w, err)
		return
	}
	h.respondDraft(w, id)
}

// respondDraft echoes the current session back after a mutation so the caller
// can render without a second round trip.
func (h *Handler) respondDraft(w http.ResponseWriter, tableID int64) {
	session, err := h.engine.Hydrate(tableID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orderResponse{
		Mode:   session.Mode,
		Items:  session.Items,
		Order:  session.Order,
		Totals: billing.ComputeTotals(session.Items, h.catalog, session.Discount),
	})
}

// Checkout

type checkoutRequest struct {
	Discount      int64  `json:"discount"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.engine.Finalize(id, req.Discount, strings.TrimSpace(req.CustomerName), strings.TrimSpace(req.CustomerPhone))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// History

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.engine.History()
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if history == nil {
		history = []domain.BillEntry{}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("table_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid table_id")
			return
		}
		filtered := make([]domain.BillEntry, 0, len(history))
		for _, entry := range history {
			if entry.TableID == id {
				filtered = append(filtered, entry)
			}
		}
		history = filtered
	}

	respondJSON(w, http.StatusOK, history)
}

// Helpers

func tableID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid table id")
		return 0, false
	}
	return id, true
}

func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrTableNotFound):
		respondError(w, http.StatusNotFound, "table not found")
	case errors.Is(err, billing.ErrEmptyCheckout):
		respondError(w, http.StatusUnprocessableEntity, "nothing to bill for this table")
	case errors.Is(err, billing.ErrPersistence):
		respondError(w, http.StatusInternalServerError, "could not save")
	default:
		respondError(w, http.StatusInternalServerError, "unexpected error")
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
