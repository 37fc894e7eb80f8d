package voicemail

import (
	"context"
	"fmt"
	"strings"
)

// Repository abstracts template lookup.
type Repository interface {
	// DefaultForAttempt returns the active default template for the attempt
	// number, ok=false when none is configured.
	DefaultForAttempt(ctx context.Context, attempt int) (Template, bool, error)
}

// Resolver selects and renders a voicemail script for a given attempt.
// It is stateless; substitution has no side effects.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver { return &Resolver{repo: repo} }

// Resolve renders the script for attempt (1-based). A missing template
// falls back to a synthesized generic message so a dial session never
// proceeds without a script.
func (r *Resolver) Resolve(ctx context.Context, attempt int, vars map[string]string) (string, error) {
	if attempt < 1 {
		return "", fmt.Errorf("voicemail: attempt must be >= 1, got %d", attempt)
	}
	if r.repo != nil {
		tpl, ok, err := r.repo.DefaultForAttempt(ctx, attempt)
		if err != nil {
			return "", fmt.Errorf("voicemail: template lookup: %w", err)
		}
		if ok {
			return Render(tpl.ScriptContent, vars), nil
		}
	}
	return Render(fallbackScript, vars), nil
}

const fallbackScript = "Hi {first_name}, this is {salesperson_name} from {dealership_name}. " +
	"I wanted to follow up about the {vehicle_interest} you were interested in. " +
	"Give me a call back at {phone_number} when you get a chance. Thanks!"

// Render performs literal placeholder substitution. Only keys present in
// vars are replaced; unknown placeholders stay verbatim.
func Render(script string, vars map[string]string) string {
	out := script
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
