package api

import (
	"net/http"
	"strings"

	"github.com/fastprodman/surveyledger/pkg/money"
)

const idempotencyHeader = "Idempotency-Key"

type depositRequest struct {
	Amount amountField `json:"amount"`
}

type depositResponse struct {
	Balance string `json:"balance"`
}

// DepositHandler handles POST /api/wallet/deposit.
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reference := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	bal, err := h.ledger.Deposit(r.Context(), p.UserID, string(req.Amount), reference)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, depositResponse{Balance: money.Format(bal)})
}

// WalletHandler handles GET /api/wallet.
func (h *HandlerProvider) WalletHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	view, err := h.ledger.GetWalletView(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWalletResponse(view))
}
