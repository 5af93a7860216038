//go:build !integration

package model

import (
	"testing"
	"time"

	"saas-subscription-backend/internal/domain"
)

func TestParseProviderStatus(t *testing.T) {
	cases := []struct {
		in   string
		want SubscriptionStatus
	}{
		{"active", SubscriptionStatusActive},
		{"trialing", SubscriptionStatusActive},
		{"past_due", SubscriptionStatusPastDue},
		{"unpaid", SubscriptionStatusUnpaid},
		{"canceled", SubscriptionStatusCanceled},
	}
	for _, tc := range cases {
		got, err := ParseProviderStatus(tc.in)
		if err != nil {
			t.Errorf("ParseProviderStatus(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseProviderStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	t.Run("unknown status is a permanent malformed-event failure", func(t *testing.T) {
		_, err := ParseProviderStatus("paused")
		if err == nil {
			t.Fatal("expected an error")
		}
		if !domain.IsPermanent(err) {
			t.Error("expected permanent error")
		}
	})
}

func TestNewSubscription(t *testing.T) {
	now := time.Now()

	t.Run("starts active with provider fields set", func(t *testing.T) {
		s, err := NewSubscription("id-1", "user-1", "plan-1", "psub_1", now, now.AddDate(0, 1, 0))
		if err != nil {
			t.Fatalf("NewSubscription failed: %v", err)
		}
		if s.Status != SubscriptionStatusActive {
			t.Errorf("expected active, got %s", s.Status)
		}
		if s.ProviderSubscriptionID == nil || *s.ProviderSubscriptionID != "psub_1" {
			t.Error("expected provider subscription id set")
		}
		if s.CurrentPeriodStart == nil || s.CurrentPeriodEnd == nil {
			t.Error("expected period bounds set")
		}
	})

	t.Run("zero period bounds stay nil", func(t *testing.T) {
		s, err := NewSubscription("id-1", "user-1", "plan-1", "psub_1", time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("NewSubscription failed: %v", err)
		}
		if s.CurrentPeriodStart != nil || s.CurrentPeriodEnd != nil {
			t.Error("expected nil period bounds")
		}
	})

	t.Run("missing identifiers are rejected", func(t *testing.T) {
		if _, err := NewSubscription("", "user-1", "plan-1", "psub_1", now, now); err == nil {
			t.Error("expected error for empty id")
		}
		if _, err := NewSubscription("id-1", "", "plan-1", "psub_1", now, now); err == nil {
			t.Error("expected error for empty user id")
		}
	})
}

func TestMarkCanceled(t *testing.T) {
	s, err := NewSubscription("id-1", "user-1", "plan-1", "psub_1", time.Now(), time.Now().AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("NewSubscription failed: %v", err)
	}

	s.MarkCanceled()
	if s.Status != SubscriptionStatusCanceled {
		t.Errorf("expected canceled, got %s", s.Status)
	}
	if !s.CancelAtPeriodEnd {
		t.Error("expected cancel_at_period_end set")
	}

	// terminal state survives a second call
	s.MarkCanceled()
	if s.Status != SubscriptionStatusCanceled {
		t.Errorf("expected canceled after repeat, got %s", s.Status)
	}
}
