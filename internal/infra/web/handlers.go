package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/infra/logging"
	"saas-subscription-backend/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Internal detail stays in
// the logs; the response carries only the sentinel's message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrPlanNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrInvalidCredential):
		status, msg = http.StatusUnauthorized, "invalid credential"
	case errors.Is(err, domain.ErrAlreadySubscribed):
		status, msg = http.StatusConflict, "already subscribed"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, domain.ErrNotActive):
		status, msg = http.StatusBadRequest, "subscription not active"
	case errors.Is(err, domain.ErrPlanMisconfigured):
		status, msg = http.StatusBadRequest, "plan not purchasable"
	case errors.Is(err, domain.ErrPlanInUse):
		status, msg = http.StatusConflict, "plan has subscriptions"
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, "invalid argument"
	case errors.Is(err, domain.ErrGatewayFailure):
		status, msg = http.StatusBadGateway, "billing provider unavailable"
	}

	if status >= http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
	} else {
		logging.With(r.Context(), s.log).Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}

// --- auth ---

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	writeJSON(w, http.StatusOK, struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Admin    bool   `json:"admin"`
	}{user.ID, user.Email, user.FullName, user.Admin})
}

// --- plans ---

type planResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Interval    string `json:"interval"`
	Active      bool   `json:"active"`
}

func toPlanResponse(p *model.Plan) planResponse {
	return planResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Interval:    string(p.Interval),
		Active:      p.Active,
	}
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	plans, err := s.planUC.ListActive(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type planCreateRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents"`
	Interval        string `json:"interval"`
	ProviderPriceID string `json:"provider_price_id"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := s.planUC.Create(r.Context(), CurrentUser(r.Context()), usecase.CreatePlanInput{
		Name:            req.Name,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		Interval:        model.BillingInterval(req.Interval),
		ProviderPriceID: req.ProviderPriceID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

type planUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Interval    *string `json:"interval"`
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req planUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	in := usecase.UpdatePlanInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	}
	if req.Interval != nil {
		iv := model.BillingInterval(*req.Interval)
		in.Interval = &iv
	}
	plan, err := s.planUC.Update(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "planID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (s *Server) handleDeactivatePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Deactivate(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "planID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- subscriptions ---

type subscriptionResponse struct {
	ID                     string  `json:"id"`
	PlanID                 string  `json:"plan_id"`
	Status                 string  `json:"status"`
	ProviderSubscriptionID *string `json:"provider_subscription_id,omitempty"`
	CurrentPeriodStart     *string `json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *string `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool    `json:"cancel_at_period_end"`
}

func toSubscriptionResponse(sub *model.Subscription) subscriptionResponse {
	out := subscriptionResponse{
		ID:                     sub.ID,
		PlanID:                 sub.PlanID,
		Status:                 string(sub.Status),
		ProviderSubscriptionID: sub.ProviderSubscriptionID,
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodStart != nil {
		v := sub.CurrentPeriodStart.UTC().Format("2006-01-02T15:04:05Z07:00")
		out.CurrentPeriodStart = &v
	}
	if sub.CurrentPeriodEnd != nil {
		v := sub.CurrentPeriodEnd.UTC().Format("2006-01-02T15:04:05Z07:00")
		out.CurrentPeriodEnd = &v
	}
	return out
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	subs, err := s.subUC.ListForUser(r.Context(), user, user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionResponse(sub))
	}
	writeJSON(w, http.StatusOK, out)
}

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub, err := s.subUC.Subscribe(r.Context(), CurrentUser(r.Context()).ID, req.PlanID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

type cancelRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubscriptionID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub, err := s.subUC.Cancel(r.Context(), CurrentUser(r.Context()), req.SubscriptionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

type checkoutRequest struct {
	PlanID     string `json:"plan_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" || req.SuccessURL == "" || req.CancelURL == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	url, err := s.subUC.Checkout(r.Context(), CurrentUser(r.Context()).ID, req.PlanID, req.SuccessURL, req.CancelURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		URL string `json:"url"`
	}{url})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	_, limit := pagination(r)
	invoices, err := s.subUC.Invoices(r.Context(), user, user.ID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// --- projects ---

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	OwnerID     string   `json:"owner_id"`
	MemberIDs   []string `json:"member_ids,omitempty"`
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		MemberIDs:   p.MemberIDs,
	}
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.projectUC.Create(r.Context(), CurrentUser(r.Context()), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	projects, err := s.projectUC.List(r.Context(), CurrentUser(r.Context()), offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectUC.Get(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.projectUC.Update(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "projectID"), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projectUC.Delete(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "projectID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.projectUC.AddMember(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "projectID"), req.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.projectUC.RemoveMember(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "projectID"), chi.URLParam(r, "userID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- content ---

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	articles, err := s.contentUC.ListArticles(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.contentUC.GetArticle(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}
