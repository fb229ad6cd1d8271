package billing

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/authgate"
	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/metrics"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// callerHeader carries the authenticated caller identity. Authentication
// itself is the gateway's concern; this module trusts the header.
const callerHeader = "X-Account-ID"

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

type balanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   uint64 `json:"balance"`
}

type createPlanRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Price           uint64 `json:"price"`
	Currency        string `json:"currency"`
	BillingCycle    string `json:"billing_cycle"` // Go duration syntax, e.g. "720h"
	SubscriberLimit uint32 `json:"subscriber_limit,omitempty"`
}

type planResponse struct {
	ID              int64  `json:"id"`
	MerchantID      string `json:"merchant_id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Price           uint64 `json:"price"`
	Currency        string `json:"currency"`
	BillingCycle    string `json:"billing_cycle"`
	Active          bool   `json:"active"`
	SubscriberCount uint32 `json:"subscriber_count"`
	SubscriberLimit uint32 `json:"subscriber_limit"`
}

type subscribeRequest struct {
	PlanID int64  `json:"plan_id"`
	Amount uint64 `json:"amount"`
}

type subscriptionResponse struct {
	ID            int64      `json:"id"`
	SubscriberID  string     `json:"subscriber_id"`
	PlanID        int64      `json:"plan_id"`
	MerchantID    string     `json:"merchant_id"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	NextBillingAt time.Time  `json:"next_billing_at"`
	TotalPaid     uint64     `json:"total_paid"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

type metricsResponse struct {
	MerchantID        string `json:"merchant_id"`
	TotalSubscribers  uint64 `json:"total_subscribers"`
	ActiveSubscribers uint64 `json:"active_subscribers"`
	TotalRevenue      uint64 `json:"total_revenue"`
	PeriodRevenue     uint64 `json:"period_revenue"`
	Churned           uint64 `json:"churned"`
}

type feeRequest struct {
	Percent uint8 `json:"percent"`
}

func caller(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get(callerHeader))
	return id, err == nil
}

func urlID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}

func urlUUID(r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	return id, err == nil
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func badRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(jsonResponse{
		Error: &errorDetail{Code: "bad_request", Message: message},
	})
}

func forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(jsonResponse{
		Error: &errorDetail{Code: "not_authorized", Message: message},
	})
}

func (m Module) handleDeposit(w http.ResponseWriter, r *http.Request) {
	account, ok := urlUUID(r, "accountID")
	if !ok {
		badRequest(w, "invalid account id")
		return
	}
	var req amountRequest
	if !decode(r, &req) {
		badRequest(w, "invalid request body")
		return
	}

	if err := m.Ledger.Deposit(r.Context(), account, req.Amount); err != nil {
		respondError(w, err)
		return
	}

	balance, err := m.Ledger.Balance(r.Context(), account)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{AccountID: account.String(), Balance: balance})
}

func (m Module) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	account, ok := urlUUID(r, "accountID")
	if !ok {
		badRequest(w, "invalid account id")
		return
	}
	callerID, ok := caller(r)
	if !ok || callerID != account {
		forbidden(w, "only the account holder may withdraw")
		return
	}
	var req amountRequest
	if !decode(r, &req) {
		badRequest(w, "invalid request body")
		return
	}

	if err := m.Ledger.Withdraw(r.Context(), account, req.Amount); err != nil {
		respondError(w, err)
		return
	}

	balance, err := m.Ledger.Balance(r.Context(), account)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{AccountID: account.String(), Balance: balance})
}

func (m Module) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := urlUUID(r, "accountID")
	if !ok {
		badRequest(w, "invalid account id")
		return
	}

	balance, err := m.Ledger.Balance(r.Context(), account)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{AccountID: account.String(), Balance: balance})
}

func (m Module) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(r)
	if !ok {
		forbidden(w, "caller identity required")
		return
	}
	var req createPlanRequest
	if !decode(r, &req) {
		badRequest(w, "invalid request body")
		return
	}
	cycle, err := time.ParseDuration(req.BillingCycle)
	if err != nil {
		badRequest(w, "invalid billing cycle")
		return
	}

	plan, err := m.Catalog.CreatePlan(r.Context(), callerID, catalog.CreatePlanInput{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Currency:        req.Currency,
		BillingCycle:    cycle,
		SubscriberLimit: req.SubscriberLimit,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (m Module) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "planID")
	if !ok {
		badRequest(w, "invalid plan id")
		return
	}

	plan, err := m.Catalog.GetPlan(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (m Module) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(r)
	if !ok {
		forbidden(w, "caller identity required")
		return
	}
	var req subscribeRequest
	if !decode(r, &req) {
		badRequest(w, "invalid request body")
		return
	}

	sub, err := m.Subscriptions.Subscribe(r.Context(), callerID, req.PlanID, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

func (m Module) handlePay(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(r)
	if !ok {
		forbidden(w, "caller identity required")
		return
	}
	id, ok := urlID(r, "subscriptionID")
	if !ok {
		badRequest(w, "invalid subscription id")
		return
	}

	sub, err := m.Subscriptions.Pay(r.Context(), callerID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (m Module) handleCancel(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(r)
	if !ok {
		forbidden(w, "caller identity required")
		return
	}
	id, ok := urlID(r, "subscriptionID")
	if !ok {
		badRequest(w, "invalid subscription id")
		return
	}

	if err := m.Subscriptions.Cancel(r.Context(), callerID, id); err != nil {
		respondError(w, err)
		return
	}

	sub, err := m.Subscriptions.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (m Module) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "subscriptionID")
	if !ok {
		badRequest(w, "invalid subscription id")
		return
	}

	sub, err := m.Subscriptions.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (m Module) handleMerchantMetrics(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := urlUUID(r, "merchantID")
	if !ok {
		badRequest(w, "invalid merchant id")
		return
	}
	callerID, ok := caller(r)
	if !ok {
		forbidden(w, "caller identity required")
		return
	}

	// Merchants see their own metrics; everyone else needs the admin role
	// or explicit ownership of the merchant resource.
	if callerID != merchantID {
		isAdmin, err := m.Gate.HasRole(r.Context(), callerID, authgate.RoleAdmin)
		if err != nil {
			respondError(w, err)
			return
		}
		if !isAdmin {
			resource := authgate.Resource("merchant:" + merchantID.String())
			owns, err := m.Gate.IsOwner(r.Context(), resource, callerID)
			if err != nil {
				respondError(w, err)
				return
			}
			if !owns {
				forbidden(w, "caller may not read this merchant's metrics")
				return
			}
		}
	}

	stats := m.Metrics.Get(merchantID)
	respondJSON(w, http.StatusOK, toMetricsResponse(merchantID, stats))
}

func (m Module) handleSetFee(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(r)
	if !ok {
		forbidden(w, "caller identity required")
		return
	}
	var req feeRequest
	if !decode(r, &req) {
		badRequest(w, "invalid request body")
		return
	}

	if err := m.Settlement.SetFeePercent(r.Context(), callerID, req.Percent); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]uint8{"fee_percent": m.Settlement.FeePercent()})
}

func toPlanResponse(plan *catalog.Plan) planResponse {
	return planResponse{
		ID:              plan.ID,
		MerchantID:      plan.MerchantID.String(),
		Name:            plan.Name,
		Description:     plan.Description,
		Price:           plan.Price,
		Currency:        plan.Currency,
		BillingCycle:    plan.BillingCycle.String(),
		Active:          plan.Active,
		SubscriberCount: plan.SubscriberCount,
		SubscriberLimit: plan.SubscriberLimit,
	}
}

func toSubscriptionResponse(sub *subscription.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:            sub.ID,
		SubscriberID:  sub.SubscriberID.String(),
		PlanID:        sub.PlanID,
		MerchantID:    sub.MerchantID.String(),
		Status:        string(sub.Status),
		StartedAt:     sub.StartedAt,
		NextBillingAt: sub.NextBillingAt,
		TotalPaid:     sub.TotalPaid,
		CancelledAt:   sub.CancelledAt,
	}
}

func toMetricsResponse(merchantID uuid.UUID, m metrics.MerchantMetrics) metricsResponse {
	return metricsResponse{
		MerchantID:        merchantID.String(),
		TotalSubscribers:  m.TotalSubscribers,
		ActiveSubscribers: m.ActiveSubscribers,
		TotalRevenue:      m.TotalRevenue,
		PeriodRevenue:     m.PeriodRevenue,
		Churned:           m.Churned,
	}
}
