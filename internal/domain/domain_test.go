package domain

import (
	"errors"
	"testing"
)

func TestParseLogTypeFromString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input   string
		want    LogType
		wantErr bool
	}{
		{input: "SUCCESS", want: LogSuccess},
		{input: "error", want: LogError},
		{input: "  Queued  ", want: LogQueued},
		{input: "info", want: LogInfo},
		{input: "warning", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := ParseLogTypeFromString(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLogTypeFromString(%q) expected error", tc.input)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParseLogTypeFromString(%q) error = %v, want ErrValidation", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLogTypeFromString(%q) error = %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLogTypeFromString(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestPendingDeliveryExhausted(t *testing.T) {
	t.Parallel()

	if (PendingDelivery{RetryCount: MaxRetries - 1}).Exhausted() {
		t.Error("entry below the cap must not be exhausted")
	}
	if !(PendingDelivery{RetryCount: MaxRetries}).Exhausted() {
		t.Error("entry at the cap must be exhausted")
	}
	if !(PendingDelivery{RetryCount: MaxRetries + 3}).Exhausted() {
		t.Error("entry past the cap must be exhausted")
	}
}
