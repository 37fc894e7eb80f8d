package voicemail

import (
	"context"
	"strings"
	"testing"
)

func TestResolve_SubstitutesAndLeavesUnknownVerbatim(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Templates = []Template{{
		ID:            "t2",
		AttemptNumber: 2,
		IsDefault:     true,
		IsActive:      true,
		ScriptContent: "Hi {first_name}, still thinking about that {vehicle_interest}? {unknown_var}",
	}}
	r := NewResolver(repo)

	out, err := r.Resolve(context.Background(), 2, map[string]string{
		VarFirstName:       "Sam",
		VarVehicleInterest: "SUV",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(out, "Hi Sam") || !strings.Contains(out, "that SUV?") {
		t.Fatalf("expected substitutions, got %q", out)
	}
	if !strings.Contains(out, "{unknown_var}") {
		t.Fatalf("expected unknown placeholder left verbatim, got %q", out)
	}
}

func TestResolve_FallsBackWhenNoTemplate(t *testing.T) {
	r := NewResolver(NewMemoryRepo())

	out, err := r.Resolve(context.Background(), 1, map[string]string{
		VarFirstName:       "Sam",
		VarVehicleInterest: "pickup",
		VarSalespersonName: "Alex",
		VarDealershipName:  "Hilltop Motors",
		VarPhoneNumber:     "+14155550100",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, want := range []string{"Sam", "pickup", "Alex", "Hilltop Motors", "+14155550100"} {
		if !strings.Contains(out, want) {
			t.Fatalf("fallback missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "{") {
		t.Fatalf("fallback left unsubstituted placeholder: %q", out)
	}
}

func TestResolve_IgnoresInactiveAndNonDefault(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Templates = []Template{
		{ID: "a", AttemptNumber: 1, IsDefault: true, IsActive: false, ScriptContent: "inactive"},
		{ID: "b", AttemptNumber: 1, IsDefault: false, IsActive: true, ScriptContent: "not default"},
	}
	r := NewResolver(repo)

	out, err := r.Resolve(context.Background(), 1, map[string]string{VarFirstName: "Sam"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out == "inactive" || out == "not default" {
		t.Fatalf("expected fallback, got %q", out)
	}
}

func TestResolve_RejectsZeroAttempt(t *testing.T) {
	r := NewResolver(NewMemoryRepo())
	if _, err := r.Resolve(context.Background(), 0, nil); err == nil {
		t.Fatalf("expected error for attempt 0")
	}
}

func TestRender_NoVars(t *testing.T) {
	if got := Render("plain text", nil); got != "plain text" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
