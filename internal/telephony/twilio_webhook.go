package telephony

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"autodialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TwilioStatusForm captures the subset of status callback fields we care
// about. Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/api/call-resource#statuscallback
type TwilioStatusForm struct {
	CallSid      string
	AccountSid   string
	CallStatus   string
	AnsweredBy   string
	CallDuration string
	To           string
	From         string
}

func ParseTwilioStatusCallback(r *http.Request) (TwilioStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioStatusForm{}, err
	}
	return TwilioStatusForm{
		CallSid:      r.PostFormValue("CallSid"),
		AccountSid:   r.PostFormValue("AccountSid"),
		CallStatus:   r.PostFormValue("CallStatus"),
		AnsweredBy:   r.PostFormValue("AnsweredBy"),
		CallDuration: r.PostFormValue("CallDuration"),
		To:           strings.TrimSpace(r.PostFormValue("To")),
		From:         strings.TrimSpace(r.PostFormValue("From")),
	}, nil
}

// StatusSink applies a provider status update to the call ledger. Provider
// callbacks are the authoritative record of how a call actually ended; the
// sink corrects the log row written by the synchronous dispatch path.
type StatusSink interface {
	ApplyProviderStatus(ctx context.Context, providerCallID, outcome string, durationSeconds int) error
}

// TwilioStatusWebhookHandler receives call status callbacks.
//
// NOTE: production should also validate the X-Twilio-Signature header; the
// shared-secret token keeps unauthenticated callers out in the meantime.
type TwilioStatusWebhookHandler struct {
	Sink   StatusSink
	Secret string
}

func (h TwilioStatusWebhookHandler) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Secret != "" {
		tok := c.Query("token")
		if subtle.ConstantTimeCompare([]byte(tok), []byte(h.Secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
	}

	form, err := ParseTwilioStatusCallback(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}
	if !isTerminalTwilioStatus(form.CallStatus) {
		// Intermediate states (ringing, in-progress) are not recorded.
		c.Status(http.StatusNoContent)
		return
	}
	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status sink not configured"})
		return
	}

	outcome := NormalizeTwilioStatus(form.CallStatus, form.AnsweredBy)
	duration, _ := strconv.Atoi(form.CallDuration)

	if err := h.Sink.ApplyProviderStatus(c.Request.Context(), form.CallSid, string(outcome), duration); err != nil {
		log.Error("status callback apply failed", "call_sid", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "apply failed"})
		return
	}

	log.Debug("status callback applied", "call_sid", form.CallSid, "outcome", outcome)
	c.Status(http.StatusNoContent)
}
