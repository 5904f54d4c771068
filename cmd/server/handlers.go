package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"neontrade-go/internal/admin"
	"neontrade-go/internal/auth"
	"neontrade-go/internal/engine"
	"neontrade-go/internal/i18n"
	"neontrade-go/internal/ledger"
	"neontrade-go/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	db     *gorm.DB
	engine *engine.Engine
	ledger *ledger.Ledger
	auth   *auth.Service
	admin  *admin.Service
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB, eng *engine.Engine, led *ledger.Ledger, authSvc *auth.Service, adminSvc *admin.Service) *APIHandler {
	return &APIHandler{log: log, db: db, engine: eng, ledger: led, auth: authSvc, admin: adminSvc}
}

// Routes registers every endpoint on the mux.
func (h *APIHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", h.RegisterHandler)
	mux.HandleFunc("POST /api/login", h.LoginHandler)
	mux.HandleFunc("GET /api/ticker", h.TickerHandler)
	mux.HandleFunc("GET /api/titles", h.TitlesHandler)

	mux.HandleFunc("POST /api/trades", h.requireUser(h.OpenTradeHandler))
	mux.HandleFunc("GET /api/trades/active", h.requireUser(h.ActiveTradesHandler))
	mux.HandleFunc("GET /api/trades/records", h.requireUser(h.TradeRecordsHandler))
	mux.HandleFunc("POST /api/transactions", h.requireUser(h.CreateTransactionHandler))
	mux.HandleFunc("GET /api/transactions", h.requireUser(h.TransactionsHandler))
	mux.HandleFunc("GET /api/profile", h.requireUser(h.ProfileHandler))
	mux.HandleFunc("PUT /api/bank", h.requireUser(h.BankAccountHandler))
	mux.HandleFunc("GET /api/notifications", h.requireUser(h.NotificationsHandler))
	mux.HandleFunc("PUT /api/notifications/{id}/read", h.requireUser(h.MarkNotificationHandler))

	mux.HandleFunc("GET /api/admin/users", h.requireAdmin(h.AdminUsersHandler))
	mux.HandleFunc("GET /api/admin/transactions", h.requireAdmin(h.AdminTransactionsHandler))
	mux.HandleFunc("PUT /api/admin/transactions/{id}", h.requireAdmin(h.AdminDecideTransactionHandler))
	mux.HandleFunc("POST /api/admin/adjustments", h.requireAdmin(h.AdminAdjustBalanceHandler))
	mux.HandleFunc("POST /api/admin/notifications", h.requireAdmin(h.AdminSendNotificationHandler))
	mux.HandleFunc("GET /api/admin/codes", h.requireAdmin(h.AdminListCodesHandler))
	mux.HandleFunc("POST /api/admin/codes", h.requireAdmin(h.AdminGenerateCodeHandler))
	mux.HandleFunc("DELETE /api/admin/codes/{code}", h.requireAdmin(h.AdminRemoveCodeHandler))
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requireUser extracts and verifies the bearer token, passing the user
// id through to the wrapped handler.
func (h *APIHandler) requireUser(next func(w http.ResponseWriter, r *http.Request, userID uint)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		userID, err := h.auth.VerifyToken(token)
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}
		next(w, r, userID)
	}
}

// requireAdmin gates the console endpoints behind basic auth checked
// against the admin config section.
func (h *APIHandler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !h.admin.Authenticate(user, pass) {
			http.Error(w, "admin authentication required", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// RegisterHandler creates an account from an invitation code.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mobile         string `json:"mobile"`
		Username       string `json:"username"`
		Password       string `json:"password"`
		InvitationCode string `json:"invitation_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.auth.Register(req.Mobile, req.Username, req.Password, req.InvitationCode)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMobileTaken), errors.Is(err, auth.ErrInvalidInvitation):
			h.writeError(w, http.StatusBadRequest, err)
		default:
			h.log.Error("Registration failed", zap.Error(err))
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// LoginHandler verifies credentials and issues a session token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mobile   string `json:"mobile"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	user, token, err := h.auth.Login(req.Mobile, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.writeError(w, http.StatusUnauthorized, err)
			return
		}
		h.log.Error("Login failed", zap.Error(err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

// TickerHandler returns the coin list with latest prices.
func (h *APIHandler) TickerHandler(w http.ResponseWriter, r *http.Request) {
	var coins []models.Coin
	if err := h.db.Where("enabled = ?", true).Order("id").Find(&coins).Error; err != nil {
		h.log.Error("Failed to get coins from database", zap.Error(err))
		http.Error(w, "failed to get ticker", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, coins)
}

// TitlesHandler returns the screen titles for a language tag.
func (h *APIHandler) TitlesHandler(w http.ResponseWriter, r *http.Request) {
	lang := i18n.Language(r.URL.Query().Get("lang"))
	if !lang.Valid() {
		lang = i18n.LangEN
	}
	screens := []string{i18n.ScreenHome, i18n.ScreenTrade, i18n.ScreenRecords, i18n.ScreenProfile}
	out := make(map[string]string, len(screens))
	for _, s := range screens {
		out[s] = i18n.Title(lang, s)
	}
	h.writeJSON(w, http.StatusOK, out)
}

// OpenTradeHandler opens a trade for the authenticated user.
func (h *APIHandler) OpenTradeHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	var req struct {
		CoinID    string          `json:"coin_id"`
		Amount    decimal.Decimal `json:"amount"`
		Duration  int             `json:"duration"`
		Direction string          `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	trade, err := h.engine.Open(userID, req.CoinID, req.Amount, req.Duration, models.TradeDirection(req.Direction))
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidStake),
			errors.Is(err, engine.ErrInvalidDuration),
			errors.Is(err, engine.ErrInvalidDirection),
			errors.Is(err, engine.ErrUnknownCoin),
			errors.Is(err, ledger.ErrInsufficientBalance):
			h.writeError(w, http.StatusBadRequest, err)
		default:
			h.log.Error("Failed to open trade", zap.Error(err))
			http.Error(w, "failed to open trade", http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, trade)
}

// ActiveTradesHandler returns the user's running trades in open order.
func (h *APIHandler) ActiveTradesHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	trades := h.engine.ActiveTradesFor(userID)
	if trades == nil {
		trades = []models.ActiveTrade{}
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// TradeRecordsHandler returns settled trades, newest first.
func (h *APIHandler) TradeRecordsHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	records, err := h.ledger.TradeRecords(userID)
	if err != nil {
		h.log.Error("Failed to get trade records", zap.Error(err))
		http.Error(w, "failed to get records", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// CreateTransactionHandler files a recharge or withdraw request.
func (h *APIHandler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	var req struct {
		Type   string          `json:"type"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	txType := models.TransactionType(req.Type)
	if txType != models.TxRecharge && txType != models.TxWithdraw {
		http.Error(w, "type must be Recharge or Withdraw", http.StatusBadRequest)
		return
	}
	txn, err := h.ledger.CreateTransaction(userID, txType, req.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.log.Error("Failed to create transaction", zap.Error(err))
		http.Error(w, "failed to create transaction", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, txn)
}

// TransactionsHandler returns the user's recharge/withdraw history.
func (h *APIHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	txns, err := h.ledger.Transactions(userID)
	if err != nil {
		h.log.Error("Failed to get transactions", zap.Error(err))
		http.Error(w, "failed to get transactions", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, txns)
}

// ProfileHandler returns the authenticated user's account.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	user, err := h.ledger.User(userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// BankAccountHandler saves withdrawal bank details.
func (h *APIHandler) BankAccountHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	var account models.BankAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.ledger.UpdateBankAccount(userID, account); err != nil {
		h.log.Error("Failed to save bank account", zap.Error(err))
		http.Error(w, "failed to save bank account", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotificationsHandler returns announcements, newest first.
func (h *APIHandler) NotificationsHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	notices, err := h.admin.Notifications()
	if err != nil {
		h.log.Error("Failed to get notifications", zap.Error(err))
		http.Error(w, "failed to get notifications", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, notices)
}

// MarkNotificationHandler flags an announcement as read.
func (h *APIHandler) MarkNotificationHandler(w http.ResponseWriter, r *http.Request, userID uint) {
	if err := h.admin.MarkNotificationRead(r.PathValue("id")); err != nil {
		h.log.Error("Failed to mark notification", zap.Error(err))
		http.Error(w, "failed to mark notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminUsersHandler lists all registered users.
func (h *APIHandler) AdminUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.ledger.Users()
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// AdminTransactionsHandler lists all transactions, newest first.
func (h *APIHandler) AdminTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	txns, err := h.ledger.AllTransactions()
	if err != nil {
		h.log.Error("Failed to list transactions", zap.Error(err))
		http.Error(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, txns)
}

// AdminDecideTransactionHandler approves or rejects a pending request.
func (h *APIHandler) AdminDecideTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	status := models.TransactionStatus(req.Status)
	if status != models.TxApproved && status != models.TxRejected {
		http.Error(w, "status must be Approved or Rejected", http.StatusBadRequest)
		return
	}
	err := h.ledger.SetTransactionStatus(r.PathValue("id"), status)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrTransactionNotFound):
			h.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, ledger.ErrTransactionDecided),
			errors.Is(err, ledger.ErrInsufficientBalance):
			h.writeError(w, http.StatusConflict, err)
		default:
			h.log.Error("Failed to decide transaction", zap.Error(err))
			http.Error(w, "failed to decide transaction", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminAdjustBalanceHandler applies a manual balance correction.
func (h *APIHandler) AdminAdjustBalanceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID uint            `json:"user_id"`
		Delta  decimal.Decimal `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	err := h.ledger.AdjustBalance(req.UserID, req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, ledger.ErrInsufficientBalance):
			h.writeError(w, http.StatusConflict, err)
		default:
			h.log.Error("Failed to adjust balance", zap.Error(err))
			http.Error(w, "failed to adjust balance", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminSendNotificationHandler broadcasts an announcement.
func (h *APIHandler) AdminSendNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	notice, err := h.admin.SendNotification(req.Title, req.Content)
	if err != nil {
		h.log.Error("Failed to send notification", zap.Error(err))
		http.Error(w, "failed to send notification", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, notice)
}

// AdminListCodesHandler lists unused invitation codes.
func (h *APIHandler) AdminListCodesHandler(w http.ResponseWriter, r *http.Request) {
	codes, err := h.admin.InvitationCodes()
	if err != nil {
		h.log.Error("Failed to list codes", zap.Error(err))
		http.Error(w, "failed to list codes", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, codes)
}

// AdminGenerateCodeHandler mints a new invitation code.
func (h *APIHandler) AdminGenerateCodeHandler(w http.ResponseWriter, r *http.Request) {
	code, err := h.admin.GenerateInvitationCode()
	if err != nil {
		h.log.Error("Failed to generate code", zap.Error(err))
		http.Error(w, "failed to generate code", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, code)
}

// AdminRemoveCodeHandler revokes an unused invitation code.
func (h *APIHandler) AdminRemoveCodeHandler(w http.ResponseWriter, r *http.Request) {
	err := h.admin.RemoveInvitationCode(r.PathValue("code"))
	if err != nil {
		if errors.Is(err, admin.ErrCodeNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.Error("Failed to remove code", zap.Error(err))
		http.Error(w, "failed to remove code", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
