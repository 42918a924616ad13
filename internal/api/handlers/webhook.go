// This file implements the identity provider webhook handler: the inbound
// half of user synchronization. The endpoint is NOT behind auth middleware;
// security is provided by verifying the provider's HMAC signature over the
// raw body and transport headers.
package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appstarter/internal/core"
	"appstarter/internal/external"
	"appstarter/internal/types"
)

// maxWebhookBodySize caps the webhook payload (64 KB). Identity events are
// small; the limit protects against abuse.
const maxWebhookBodySize = 64 * 1024

// Transport headers carrying the delivery id, timestamp, and signature.
const (
	headerWebhookID        = "webhook-id"
	headerWebhookTimestamp = "webhook-timestamp"
	headerWebhookSignature = "webhook-signature"
)

// webhookAck is the fixed success body.
type webhookAck struct {
	OK bool `json:"ok"`
}

// IdentityWebhookHandler processes signed user lifecycle events from the
// identity provider and keeps the local users table in sync.
type IdentityWebhookHandler struct {
	verifier external.EventVerifier
	services Services
	secret   types.SecretString
	logger   *slog.Logger
}

// NewIdentityWebhookHandler creates the webhook handler. The secret is the
// provider's webhook signing secret; it may be empty, in which case every
// delivery is rejected as a server misconfiguration.
func NewIdentityWebhookHandler(
	verifier external.EventVerifier,
	services Services,
	secret types.SecretString,
	logger *slog.Logger,
) *IdentityWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityWebhookHandler{
		verifier: verifier,
		services: services,
		secret:   secret,
		logger:   logger,
	}
}

// RegisterRoutes mounts the webhook endpoint.
func (h *IdentityWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/identity", h.Handle)
}

// Handle processes one delivery:
//  1. Reject with 500 when the signing secret is not configured (operator
//     error, distinct from caller errors).
//  2. Read the raw body and the three transport headers; any missing
//     header is a 400.
//  3. Verify the signature against the raw body; failure is a 400 and is
//     logged as security-relevant.
//  4. Dispatch on the event type: deletion removes the user (idempotent);
//     create/update requires a primary email and upserts.
//
// Error bodies are plain text; internal detail never leaves the process.
func (h *IdentityWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.ErrorContext(r.Context(), "webhook delivery rejected: signing secret not configured")
		http.Error(w, "webhook secret not configured", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	id := r.Header.Get(headerWebhookID)
	timestamp := r.Header.Get(headerWebhookTimestamp)
	signature := r.Header.Get(headerWebhookSignature)
	if id == "" || timestamp == "" || signature == "" {
		http.Error(w, "missing webhook headers", http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(payload, id, timestamp, signature, h.secret.Unmask()); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature verification failed",
			"webhook_id", id,
			"error", err,
		)
		http.Error(w, "invalid webhook signature", http.StatusBadRequest)
		return
	}

	var event types.IdentityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		http.Error(w, "invalid webhook payload", http.StatusBadRequest)
		return
	}

	h.logger.InfoContext(r.Context(), "processing identity webhook event",
		"webhook_id", id,
		"event_type", event.Type,
	)

	h.dispatch(w, r, &event)
}

// dispatch routes the verified event to the user service.
func (h *IdentityWebhookHandler) dispatch(w http.ResponseWriter, r *http.Request, event *types.IdentityEvent) {
	users, err := h.services.UserService()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "webhook dispatch failed: user service unavailable", "error", err)
		http.Error(w, "user service unavailable", http.StatusInternalServerError)
		return
	}

	switch event.Type {
	case types.EventUserDeleted:
		if event.Data.ID != "" {
			if err := users.DeleteByExternalID(r.Context(), event.Data.ID); err != nil {
				h.logger.ErrorContext(r.Context(), "webhook user deletion failed", "error", err)
				http.Error(w, "event processing failed", http.StatusInternalServerError)
				return
			}
		}
		core.JSON(w, r, http.StatusOK, webhookAck{OK: true})

	case types.EventUserCreated, types.EventUserUpdated:
		email := event.Data.PrimaryEmail()
		if email == "" {
			http.Error(w, "missing email address", http.StatusBadRequest)
			return
		}

		_, err := users.SyncFromIdentity(r.Context(), types.IdentityPayload{
			ExternalID: event.Data.ID,
			Email:      email,
			Name:       event.Data.DisplayName(),
			AvatarURL:  event.Data.ImageURL,
		})
		if err != nil {
			h.logger.ErrorContext(r.Context(), "webhook user sync failed", "error", err)
			http.Error(w, "event processing failed", http.StatusInternalServerError)
			return
		}
		core.JSON(w, r, http.StatusOK, webhookAck{OK: true})

	default:
		// Unknown event types are acknowledged so the provider does not
		// retry deliveries we will never handle.
		h.logger.InfoContext(r.Context(), "ignoring unhandled webhook event type",
			"event_type", event.Type,
		)
		core.JSON(w, r, http.StatusOK, webhookAck{OK: true})
	}
}
