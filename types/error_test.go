package types

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("connection refused")
	err := NewError(ErrNetworkFailure, "fetch failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithURL("https://example.com/a")

	if GetErrorCode(err) != ErrNetworkFailure {
		t.Fatalf("expected code %s, got %s", ErrNetworkFailure, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_NonRetryableByDefault(t *testing.T) {
	t.Parallel()

	err := NewError(ErrHTTPStatus, "not found").WithHTTPStatus(404)
	if IsRetryable(err) {
		t.Fatalf("expected non-retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors are never retryable")
	}
}

func TestFetchResult_Usable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		res  FetchResult
		want bool
	}{
		{"error result", FetchResult{Status: FetchFailed, Content: "text"}, false},
		{"content present", FetchResult{Status: FetchSuccess, Content: "text"}, true},
		{"price present", FetchResult{Status: FetchSuccess, Product: &ProductInfo{Price: "99.99"}}, true},
		{"name present", FetchResult{Status: FetchSuccess, Product: &ProductInfo{Name: "Widget"}}, true},
		{"empty success", FetchResult{Status: FetchSuccess}, false},
	}
	for _, tc := range cases {
		if got := tc.res.Usable(); got != tc.want {
			t.Fatalf("%s: Usable() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
