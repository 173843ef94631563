package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/internal/services/identity"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
)

// Ledger is the part of *ledger.Service the handlers call.
type Ledger interface {
	Deposit(ctx context.Context, accountID uint64, amount, reference string) (int64, error)
	FundSurvey(ctx context.Context, creatorID uint64, draft ledger.SurveyDraft) (surveys.Survey, error)
	UpdateSurveyStatus(ctx context.Context, surveyID uint64, status surveys.Status, actorRole users.Role) (surveys.Survey, error)
	GetWalletView(ctx context.Context, accountID uint64) (ledger.WalletView, error)
	ListSurveys(ctx context.Context, viewerID uint64, role users.Role) ([]surveys.Listing, error)
	Audit(ctx context.Context) (ledger.AuditReport, error)
}

// Identity is the part of *identity.Service the handlers call.
type Identity interface {
	Register(ctx context.Context, username, password string, role users.Role) (users.User, error)
	Authenticate(ctx context.Context, username, password string) (users.User, error)
	Get(ctx context.Context, userID uint64) (users.User, error)
	IssueToken(u users.User) (string, time.Time, error)
	ParseToken(raw string) (identity.Principal, error)
}

var (
	_ Ledger   = (*ledger.Service)(nil)
	_ Identity = (*identity.Service)(nil)
)

// HandlerProvider exposes the ledger and identity services as HTTP handlers.
type HandlerProvider struct {
	ledger   Ledger
	identity Identity
}

func NewHandler(l Ledger, id Identity) *HandlerProvider {
	return &HandlerProvider{ledger: l, identity: id}
}

// --- Helpers ---

const maxBodyBytes = 1 << 20

// retryAfterSeconds is sent with 503 responses caused by write conflicts.
const retryAfterSeconds = 1

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// decodeJSON reads a size-limited body that must contain exactly the known fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "validation_error", "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON: "+err.Error())
		return false
	}

	return true
}

func parseIDParam(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}

	return id, nil
}

// writeServiceError maps ledger and identity errors to status codes.
// Messages of 5xx responses never carry internal details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := ledger.ErrorCode(err)

	var status int

	switch {
	case errors.Is(err, identity.ErrInvalidInput):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, identity.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, identity.ErrUsernameTaken):
		status, code = http.StatusConflict, "username_taken"
	case errors.Is(err, identity.ErrAdminExists):
		status, code = http.StatusConflict, "admin_exists"
	case errors.Is(err, ledger.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrAccountNotFound), errors.Is(err, ledger.ErrSurveyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrBalanceOverflow),
		errors.Is(err, ledger.ErrDuplicateTransaction),
		errors.Is(err, ledger.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		status = http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"error", err,
		)
		msg = http.StatusText(status)
	}

	writeError(w, status, code, msg)
}
