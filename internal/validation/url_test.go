package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestNewURLValidator(t *testing.T) {
	v := NewURLValidator()
	if v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be false by default")
	}
	if v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be false by default")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}

	p := NewPermissiveURLValidator()
	if !p.AllowLocalhost || !p.AllowPrivateIPs {
		t.Error("Expected permissive validator to allow local and private hosts")
	}
}

func TestNormalizeFeedURL(t *testing.T) {
	v := NewURLValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{name: "empty URL", input: "", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "whitespace-only URL", input: "   ", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "valid https URL", input: "https://news.example.org/rss", expected: "https://news.example.org/rss"},
		{name: "adds https scheme", input: "news.example.org/feed.xml", expected: "https://news.example.org/feed.xml"},
		{name: "trims whitespace", input: "  https://blog.example.net/atom  ", expected: "https://blog.example.net/atom"},
		{name: "ftp rejected", input: "ftp://files.example.org/feed", shouldError: true, errorMsg: "http or https"},
		{name: "localhost rejected", input: "http://localhost:8080/feed", shouldError: true, errorMsg: "localhost"},
		{name: "loopback rejected", input: "http://127.0.0.1/feed", shouldError: true, errorMsg: "localhost"},
		{name: "private IP rejected", input: "http://192.168.1.10/feed", shouldError: true, errorMsg: "private"},
		{name: "unspecified address rejected", input: "http://0.0.0.0/feed", shouldError: true, errorMsg: "suspicious"},
		{name: "traversal rejected", input: "https://news.example.org/../etc/passwd", shouldError: true, errorMsg: "traversal"},
		{name: "script in query rejected", input: "https://news.example.org/feed?x=javascript:alert(1)", shouldError: true, errorMsg: "suspicious"},
		{name: "angle brackets rejected", input: "https://news.example.org/<feed>", shouldError: true, errorMsg: "invalid characters"},
		{name: "too long", input: "https://news.example.org/" + strings.Repeat("a", 2100), shouldError: true, errorMsg: "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.NormalizeFeedURL(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil (result %q)", tt.errorMsg, got)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeFeedURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeFeedURL_Permissive(t *testing.T) {
	v := NewPermissiveURLValidator()

	for _, input := range []string{"http://localhost:8080/feed", "http://127.0.0.1:9000/rss", "http://10.0.0.5/atom"} {
		if _, err := v.NormalizeFeedURL(input); err != nil {
			t.Errorf("permissive validator rejected %q: %v", input, err)
		}
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	v := NewPermissiveURLValidator()

	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "http://127.0.0.1:8000", expected: "http://127.0.0.1:8000"},
		{input: "http://127.0.0.1:8000/", expected: "http://127.0.0.1:8000"},
		{input: "https://api.example.org/v1/", expected: "https://api.example.org/v1"},
		{input: "api.example.org", wantErr: true},
		{input: "https://api.example.org/?key=1", wantErr: true},
		{input: "https://api.example.org/#top", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := v.NormalizeBaseURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	v := NewURLValidator()

	if _, err := v.NormalizeBaseURL(""); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if _, err := v.NormalizeBaseURL("http://localhost"); !errors.Is(err, ErrLocalhost) {
		t.Errorf("expected ErrLocalhost, got %v", err)
	}
	if _, err := v.NormalizeBaseURL("http://172.16.0.1"); !errors.Is(err, ErrPrivateAddress) {
		t.Errorf("expected ErrPrivateAddress, got %v", err)
	}
	if _, err := v.NormalizeBaseURL("http://[fd00::1]"); !errors.Is(err, ErrPrivateAddress) {
		t.Errorf("expected ErrPrivateAddress for ULA, got %v", err)
	}
}

func TestIsWebURL(t *testing.T) {
	tests := map[string]bool{
		"https://news.example.org/a/1": true,
		"http://example.com":           true,
		"#":                            false,
		"":                             false,
		"javascript:alert(1)":          false,
		"file:///etc/passwd":           false,
		"/relative/path":               false,
	}
	for input, want := range tests {
		if got := IsWebURL(input); got != want {
			t.Errorf("IsWebURL(%q) = %v, want %v", input, got, want)
		}
	}
}
