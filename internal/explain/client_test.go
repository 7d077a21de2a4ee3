package explain

import (
	"strings"
	"testing"
)

func TestNewClient_MissingAPIKey(t *testing.T) {
	client, err := NewClient("")
	if err == nil {
		t.Error("expected error for empty API key")
	}
	if client != nil {
		t.Error("expected nil client for empty API key")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("error should mention ANTHROPIC_API_KEY, got: %v", err)
	}
}

func TestNewClient_ValidAPIKey(t *testing.T) {
	client, err := NewClient("test-key-123")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if client == nil {
		t.Error("expected non-nil client")
	}
}

func TestCostEstimate(t *testing.T) {
	estimate := EstimateCost(3, 40)

	if estimate.ModuleCount != 43 {
		t.Errorf("expected 43 modules, got %d", estimate.ModuleCount)
	}
	if estimate.InputTokens < 150 {
		t.Errorf("expected > 150 input tokens, got %d", estimate.InputTokens)
	}
	if estimate.MaxCost < estimate.MinCost {
		t.Error("max cost should be >= min cost")
	}

	formatted := estimate.FormatCost()
	if !strings.HasPrefix(formatted, "$") && formatted != "< $0.01" {
		t.Errorf("expected cost format starting with $, got: %s", formatted)
	}
}

func TestCostEstimate_NoModules(t *testing.T) {
	estimate := EstimateCost(0, 0)
	if estimate.ModuleCount != 0 {
		t.Errorf("expected 0 modules, got %d", estimate.ModuleCount)
	}
	if estimate.InputTokens == 0 {
		t.Error("expected non-zero input tokens even with no modules (fixed system prompt)")
	}
}

func TestIsRetryableError(t *testing.T) {
	testCases := []struct {
		err       string
		retryable bool
	}{
		{"rate limit exceeded", true},
		{"429 Too Many Requests", true},
		{"503 Service Unavailable", true},
		{"API overloaded", true},
		{"invalid API key", false},
		{"network error", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.err, func(t *testing.T) {
			var err error
			if tc.err != "" {
				err = testError(tc.err)
			}
			if isRetryableError(err) != tc.retryable {
				t.Errorf("isRetryableError(%q) = %v, want %v", tc.err, !tc.retryable, tc.retryable)
			}
		})
	}
}

type testError string

func (e testError) Error() string { return string(e) }
