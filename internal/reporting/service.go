package reporting

import (
	"context"
	"errors"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts call log access for reporting.
//
// Implementations query the immutable call_logs ledger; nothing here writes
// during the live loop (the dialer store appends logs in its own
// transaction).
type Repository interface {
	ListBySession(ctx context.Context, sessionID string) ([]CallLog, error)

	// UpdateProviderStatus corrects the logged outcome/duration for the
	// call identified by the provider's call id.
	UpdateProviderStatus(ctx context.Context, providerCallID, outcome string, durationSeconds int) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Summarize computes session metrics from logged outcomes. Rates are over
// all dispatched calls for the session.
func (s *Service) Summarize(ctx context.Context, sessionID string) (SessionSummary, error) {
	if sessionID == "" {
		return SessionSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return SessionSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return SessionSummary{}, err
	}

	out := SessionSummary{SessionID: sessionID}
	totalDuration := 0
	for _, l := range rows {
		out.TotalCalls++
		totalDuration += l.DurationSeconds
		switch l.Outcome {
		case "connected":
			out.ConnectedCalls++
		case "voicemail":
			out.VoicemailsDropped++
		}
	}
	if out.TotalCalls > 0 {
		out.ConnectRate = float64(out.ConnectedCalls) / float64(out.TotalCalls)
		out.VoicemailRate = float64(out.VoicemailsDropped) / float64(out.TotalCalls)
		out.AverageDurationSeconds = totalDuration / out.TotalCalls
	}
	return out, nil
}

// ApplyProviderStatus satisfies the telephony status sink: provider
// callbacks are the authoritative record of how a call ended.
func (s *Service) ApplyProviderStatus(ctx context.Context, providerCallID, outcome string, durationSeconds int) error {
	if providerCallID == "" {
		return ErrInvalidRequest
	}
	if s.repo == nil {
		return errors.New("reporting: repository not configured")
	}
	return s.repo.UpdateProviderStatus(ctx, providerCallID, outcome, durationSeconds)
}
