package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
	"github.com/dmitrymomot/billingkit/pkg/settlement"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// jsonResponse is the standard response envelope.
type jsonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonResponse{Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonResponse{
		Error: &errorDetail{Code: code, Message: err.Error()},
	})
}

// classify maps domain errors onto HTTP statuses: validation 422,
// authorization 403, state conflicts 409, missing funds 402, unknown
// entities 404, failed payouts 502.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds"

	case errors.Is(err, ledger.ErrTransferFailed):
		return http.StatusBadGateway, "transfer_failed"

	case errors.Is(err, subscription.ErrNotAuthorized),
		errors.Is(err, catalog.ErrNotPlanOwner),
		errors.Is(err, catalog.ErrNotMerchant),
		errors.Is(err, settlement.ErrNotAdmin):
		return http.StatusForbidden, "not_authorized"

	case errors.Is(err, catalog.ErrPlanNotFound),
		errors.Is(err, subscription.ErrNotFound),
		errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, settlement.ErrTransactionNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, catalog.ErrPlanInactive),
		errors.Is(err, catalog.ErrSubscriberLimitReached),
		errors.Is(err, subscription.ErrNotActive),
		errors.Is(err, ledger.ErrTransferInFlight):
		return http.StatusConflict, "conflict"

	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, subscription.ErrAmountMismatch),
		errors.Is(err, settlement.ErrInvalidFeePercent),
		errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidBillingCycle),
		errors.Is(err, catalog.ErrMissingCurrency),
		errors.Is(err, catalog.ErrMissingName):
		return http.StatusUnprocessableEntity, "validation_error"

	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
