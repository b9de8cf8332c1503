package controllers

import (
	"io"
	"net/http"
	"net/url"

	"resort-backend/services"
	"resort-backend/utils"

	"github.com/gin-gonic/gin"
)

type WebhookController struct {
	AuditSvc    *services.WebhookService
	CallbackSvc *services.CallbackService
}

func NewWebhookController(audit *services.WebhookService, callbacks *services.CallbackService) *WebhookController {
	return &WebhookController{AuditSvc: audit, CallbackSvc: callbacks}
}

// HandleWebhook receives the gateway's server-to-server notification. The
// raw payload is persisted before anything else; only a persistence failure
// produces a non-2xx so the gateway retries. If the payload carries a
// verifiable encrypted response it is also reconciled, best effort.
func (wc *WebhookController) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.payload", "unreadable body")
		return
	}

	event, err := wc.AuditSvc.Record(c.Request.Context(), "webhook", c.Request.Header, c.Request.URL.Query(), body)
	if err != nil {
		utils.Log().Errorw("webhook audit persist failed", "error", err)
		utils.JSONError(c, http.StatusInternalServerError, "error.persistence", "could not record notification")
		return
	}

	if form, perr := url.ParseQuery(string(body)); perr == nil {
		if encrypted, signature, ok := services.ExtractEncryptedResponse(form, c.Request.URL.Query()); ok {
			if _, rerr := wc.CallbackSvc.Reconcile(c.Request.Context(), encrypted, signature); rerr != nil {
				// audited already; a reconcile failure here never blocks the ack
				utils.Log().Warnw("webhook reconcile skipped", "ack_id", event.AckID, "error", rerr)
			}
		}
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{"ack_id": event.AckID})
}
