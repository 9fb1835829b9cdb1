package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/interfaces"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"github.com/m-mizutani/reflow/pkg/utils/errs"
)

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret    string
	ingressUC interfaces.IngressUseCase
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, ingressUC interfaces.IngressUseCase) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		ingressUC: ingressUC,
	}
}

// Handle verifies the delivery signature and hands the event to the ingress
// use case. The decision of the use case is mapped to the response status.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get(github.SHA256SignatureHeader)
	if signature == "" {
		logger.Warn("Webhook signature missing")
		writeError(w, goerr.New("signature missing"), http.StatusForbidden)
		return
	}
	if err := github.ValidateSignature(signature, body, []byte(h.secret)); err != nil {
		logger.Warn("Invalid webhook signature", "error", err)
		writeError(w, goerr.New("invalid signature"), http.StatusForbidden)
		return
	}

	event := &model.WebhookEvent{
		ID:         r.Header.Get(github.DeliveryIDHeader),
		Type:       model.WebhookEventType(github.WebHookType(r)),
		ReceivedAt: time.Now(),
		RawPayload: body,
	}

	outcome, err := h.ingressUC.Receive(ctx, event)
	if err != nil {
		errs.Handle(ctx, "Failed to relay webhook event", err)
		writeError(w, goerr.New("failed to relay event"), http.StatusInternalServerError)
		return
	}

	switch outcome.Decision {
	case model.IngressRejected:
		writeError(w, goerr.New(outcome.Reason), http.StatusBadRequest)
	case model.IngressIgnored:
		writeStatus(w, "ok ("+outcome.Reason+")")
	default:
		writeStatus(w, "ok")
	}
}

// writeStatus writes a success response
func writeStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
	})
}
