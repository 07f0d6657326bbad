package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrLocalhost      = errors.New("localhost URLs are not permitted")
	ErrPrivateAddress = errors.New("private IP addresses are not permitted")
)

// URLValidator checks URLs the client is about to request.
type URLValidator struct {
	// AllowLocalhost permits localhost and loopback hosts.
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918, link-local and ULA addresses.
	AllowPrivateIPs bool
	MaxLength       int
}

// NewURLValidator blocks local and private hosts.
func NewURLValidator() *URLValidator {
	return &URLValidator{MaxLength: 2048}
}

// NewPermissiveURLValidator allows local development servers.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// NormalizeFeedURL validates a feed URL and returns its normalized form. A
// missing scheme defaults to https.
func (v *URLValidator) NormalizeFeedURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := v.parse(input)
	if err != nil {
		return "", err
	}
	if strings.Contains(u.RawQuery, "<script") || strings.Contains(u.RawQuery, "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}
	return u.String(), nil
}

// NormalizeBaseURL validates the news API base URL. The scheme must be
// explicit, query and fragment are rejected and a trailing slash is dropped
// so paths can be appended.
func (v *URLValidator) NormalizeBaseURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyURL
	}

	u, err := v.parse(input)
	if err != nil {
		return "", err
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("base URL must not carry a query or fragment")
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

func (v *URLValidator) parse(input string) (*url.URL, error) {
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return nil, fmt.Errorf("URL contains invalid characters")
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL must use http or https protocol")
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("URL must have a valid hostname")
	}
	if strings.Contains(u.Path, "..") {
		return nil, fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return nil, err
	}
	return u, nil
}

func (v *URLValidator) checkHost(hostname string) error {
	if !v.AllowLocalhost && isLocalhost(hostname) {
		return ErrLocalhost
	}
	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
			return fmt.Errorf("suspicious hostname detected")
		}
		if !v.AllowPrivateIPs && (ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLoopback()) {
			return ErrPrivateAddress
		}
	}
	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

// IsWebURL reports whether s is an absolute http(s) URL, as required before
// handing an item link to an external opener.
func IsWebURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
