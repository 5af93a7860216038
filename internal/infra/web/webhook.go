package web

import (
	"io"
	"net/http"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/infra/logging"
	"saas-subscription-backend/internal/infra/metrics"
)

// maxWebhookBody bounds inbound event payloads.
const maxWebhookBody = 1 << 20

// handleWebhook receives provider events. The response status is the ack
// protocol: 2xx stops redelivery, anything else causes the provider to
// retry. Permanent failures are therefore acked after logging; transient
// ones return 5xx so the event comes back.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	sig := r.Header.Get("Stripe-Signature")
	if sig == "" {
		// reject before touching the body
		http.Error(w, "missing signature header", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	ev, err := s.billing.VerifyAndParseEvent(payload, sig)
	if err != nil {
		kind := "unknown"
		if domain.IsPermanent(err) {
			metrics.IncBillingEvent(kind, "rejected")
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("webhook rejected")
			http.Error(w, "invalid event", http.StatusBadRequest)
			return
		}
		metrics.IncBillingEvent(kind, "error")
		s.writeError(w, r, err)
		return
	}

	ctx := logging.WithEventID(r.Context(), ev.ID)
	log := logging.With(ctx, s.log)

	if ev.Kind == adapter.EventIgnored {
		metrics.IncBillingEvent("ignored", "acked")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.reconcileUC.HandleProviderEvent(ctx, ev); err != nil {
		if domain.IsPermanent(err) {
			// Redelivery cannot succeed; ack to stop it. The failure is
			// still an operator signal, so it is logged at error level.
			metrics.IncBillingEvent(string(ev.Kind), "permanent_error")
			log.Error().Err(err).Str("kind", string(ev.Kind)).Msg("event failed permanently, acknowledged")
			w.WriteHeader(http.StatusOK)
			return
		}
		metrics.IncBillingEvent(string(ev.Kind), "transient_error")
		log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("event failed transiently, redelivery requested")
		http.Error(w, "retry later", http.StatusInternalServerError)
		return
	}

	metrics.IncBillingEvent(string(ev.Kind), "processed")
	w.WriteHeader(http.StatusOK)
}
