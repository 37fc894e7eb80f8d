package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const twilioDefaultBaseURL = "https://api.twilio.com"

// TwilioOptions configures the Twilio adapter. Zero values get safe
// defaults except credentials, which are required.
type TwilioOptions struct {
	AccountSID string
	AuthToken  string

	// BaseURL overrides the API host (tests point it at a local server).
	BaseURL string

	HTTPClient *http.Client

	// PollInterval is how often call status is fetched while waiting for a
	// terminal state.
	PollInterval time.Duration
}

// TwilioProvider places calls through the Twilio REST API: create the call
// with a voicemail TwiML document, then poll until the call reaches a
// terminal status.
type TwilioProvider struct {
	accountSID   string
	authToken    string
	baseURL      string
	httpc        *http.Client
	pollInterval time.Duration
}

func NewTwilioProvider(opts TwilioOptions) (*TwilioProvider, error) {
	if opts.AccountSID == "" || opts.AuthToken == "" {
		return nil, errors.New("telephony: twilio credentials are required")
	}
	p := &TwilioProvider{
		accountSID:   opts.AccountSID,
		authToken:    opts.AuthToken,
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		httpc:        opts.HTTPClient,
		pollInterval: opts.PollInterval,
	}
	if p.baseURL == "" {
		p.baseURL = twilioDefaultBaseURL
	}
	if p.httpc == nil {
		p.httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if p.pollInterval <= 0 {
		p.pollInterval = 2 * time.Second
	}
	return p, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	// Fetching the account resource is the cheapest authenticated call.
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	resp, err := p.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telephony: twilio health check status %d", resp.StatusCode)
	}
	return nil
}

// twilioCall is the subset of the call resource we read.
type twilioCall struct {
	Sid        string `json:"sid"`
	Status     string `json:"status"`
	AnsweredBy string `json:"answered_by"`
	Duration   string `json:"duration"`
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if req.To == "" || req.From == "" {
		return PlaceCallResult{}, errors.New("telephony: to and from are required")
	}

	doc, err := VoicemailTwiML(req.VoicemailScript)
	if err != nil {
		return PlaceCallResult{}, err
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Twiml", doc)
	if req.EnableVoicemailDetection {
		form.Set("MachineDetection", "Enable")
	}

	created, err := p.createCall(ctx, form)
	if err != nil {
		return PlaceCallResult{}, err
	}

	final, err := p.waitForTerminal(ctx, created)
	if err != nil {
		return PlaceCallResult{ProviderCallID: created.Sid}, err
	}

	duration, _ := strconv.Atoi(final.Duration)
	return PlaceCallResult{
		ProviderCallID:  final.Sid,
		Outcome:         NormalizeTwilioStatus(final.Status, final.AnsweredBy),
		DurationSeconds: duration,
		AnsweredBy:      final.AnsweredBy,
	}, nil
}

func (p *TwilioProvider) createCall(ctx context.Context, form url.Values) (twilioCall, error) {
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return twilioCall{}, err
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpc.Do(httpReq)
	if err != nil {
		return twilioCall{}, fmt.Errorf("telephony: twilio create call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return twilioCall{}, fmt.Errorf("telephony: twilio create call status %d", resp.StatusCode)
	}

	var call twilioCall
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return twilioCall{}, fmt.Errorf("telephony: twilio create call decode: %w", err)
	}
	if call.Sid == "" {
		return twilioCall{}, errors.New("telephony: twilio create call returned no sid")
	}
	return call, nil
}

func (p *TwilioProvider) waitForTerminal(ctx context.Context, call twilioCall) (twilioCall, error) {
	for {
		if isTerminalTwilioStatus(call.Status) {
			return call, nil
		}
		select {
		case <-ctx.Done():
			return call, fmt.Errorf("telephony: twilio call %s: %w", call.Sid, ctx.Err())
		case <-time.After(p.pollInterval):
		}

		next, err := p.fetchCall(ctx, call.Sid)
		if err != nil {
			return call, err
		}
		call = next
	}
}

func (p *TwilioProvider) fetchCall(ctx context.Context, sid string) (twilioCall, error) {
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", p.baseURL, p.accountSID, sid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return twilioCall{}, err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return twilioCall{}, fmt.Errorf("telephony: twilio fetch call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return twilioCall{}, fmt.Errorf("telephony: twilio fetch call status %d", resp.StatusCode)
	}

	var call twilioCall
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return twilioCall{}, fmt.Errorf("telephony: twilio fetch call decode: %w", err)
	}
	return call, nil
}

func isTerminalTwilioStatus(status string) bool {
	switch status {
	case "completed", "busy", "no-answer", "failed", "canceled":
		return true
	default:
		return false
	}
}

// NormalizeTwilioStatus maps a Twilio CallStatus (+ machine detection
// verdict) into the five-value outcome enum. Used by both the synchronous
// adapter and the status webhook.
func NormalizeTwilioStatus(status, answeredBy string) CallOutcome {
	switch status {
	case "completed":
		if strings.HasPrefix(answeredBy, "machine") || answeredBy == "fax" {
			return OutcomeVoicemail
		}
		return OutcomeConnected
	case "busy":
		return OutcomeBusy
	case "no-answer":
		return OutcomeNoAnswer
	default:
		// failed, canceled, and anything unrecognized.
		return OutcomeFailed
	}
}
