package security

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// ErrUnsafeURL is returned for URLs targeting internal networks,
// metadata services, or disallowed schemes.
var ErrUnsafeURL = errors.New("unsafe URL")

// maxRedirects bounds redirect chains so a safe URL cannot bounce the
// client into a private address.
const maxRedirects = 3

// HTTP screens outbound requests made on behalf of the model (SSRF).
type HTTP struct {
	maxResponseSize int64
	allowedSchemes  []string
	timeout         time.Duration
}

// NewHTTP creates an HTTP validator with a 5 MB response cap and a
// 10 second request timeout.
func NewHTTP() *HTTP {
	return &HTTP{
		maxResponseSize: 5 * 1024 * 1024,
		allowedSchemes:  []string{"http", "https"},
		timeout:         10 * time.Second,
	}
}

// MaxResponseSize returns the response size cap in bytes.
func (v *HTTP) MaxResponseSize() int64 {
	return v.maxResponseSize
}

// ValidateURL rejects non-http(s) schemes, dangerous hostnames, and any
// hostname that resolves to a private or link-local address.
func (v *HTTP) ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}

	if !slices.Contains(v.allowedSchemes, strings.ToLower(u.Scheme)) {
		return fmt.Errorf("%w: scheme %q (only http/https allowed)", ErrUnsafeURL, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing hostname", ErrUnsafeURL)
	}
	if dangerousHostname(host) {
		return fmt.Errorf("%w: host %q targets internal network or metadata service", ErrUnsafeURL, host)
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", host, err)
	}
	for _, ip := range ips {
		if privateIP(ip) {
			return fmt.Errorf("%w: %q resolves to internal address %s", ErrUnsafeURL, host, ip)
		}
	}

	return nil
}

// Client returns an http.Client that re-validates every redirect hop.
func (v *HTTP) Client() *http.Client {
	return &http.Client{
		Timeout: v.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if err := v.ValidateURL(req.URL.String()); err != nil {
				return fmt.Errorf("redirect: %w", err)
			}
			return nil
		},
	}
}

// dangerousHostname catches local and cloud metadata hosts before DNS
// resolution runs.
func dangerousHostname(host string) bool {
	host = strings.ToLower(host)

	local := []string{"localhost", "127.0.0.1", "::1", "0.0.0.0"}
	if slices.Contains(local, host) {
		return true
	}

	// Cloud metadata endpoints (AWS/GCP/Azure).
	metadata := []string{"169.254.169.254", "metadata.google.internal", "metadata"}
	for _, m := range metadata {
		if host == m || strings.Contains(host, m) {
			return true
		}
	}
	return false
}

var privateCIDRs = func() []*net.IPNet {
	blocks := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"224.0.0.0/4",
		"240.0.0.0/4",
	}
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, b := range blocks {
		_, n, err := net.ParseCIDR(b)
		if err != nil {
			panic("security: bad builtin CIDR " + b)
		}
		nets = append(nets, n)
	}
	return nets
}()

// privateIP reports whether ip belongs to a private, loopback,
// link-local, or otherwise non-routable range.
func privateIP(ip net.IP) bool {
	for _, n := range privateCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	// IPv6 unique local addresses, fc00::/7.
	if len(ip) == net.IPv6len && (ip[0] == 0xfc || ip[0] == 0xfd) {
		return true
	}
	return false
}
