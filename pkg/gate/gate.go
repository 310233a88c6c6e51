// Package gate decides whether a caller may trigger a network-wide license scan.
//
// Only the network administration context may do so. When the caller can't
// tell whether it is running in that context (asynchronous follow-up
// requests lose it), the originating page is inferred from the referer. That
// inference trusts a client-supplied header: it keeps the scan off ordinary
// pages but is not an access control mechanism.
package gate

import (
	"errors"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// NetworkPluginsPage is the path suffix identifying the network plugin
// management screen.
const NetworkPluginsPage = "wp-admin/network/plugins.php"

// ErrUnauthorized is returned by surfaces that must report a refused scan.
var ErrUnauthorized = errors.New("not in the network administration context")

// Request carries the origin hints of one invocation.
type Request struct {
	// NetworkAdmin is the host's own network-admin flag. Nil when the
	// invocation context doesn't have it.
	NetworkAdmin *bool
	// Referer is the originating request's referer, possibly empty.
	Referer string
}

// Admin returns a Request with the network-admin flag set to v.
func Admin(v bool) Request {
	return Request{NetworkAdmin: &v}
}

type Gate struct {
	// StrictRefererDomain additionally requires the referer host to share a
	// registrable domain with PrimaryDomain.
	StrictRefererDomain bool
	PrimaryDomain       string
}

// IsAuthorized reports whether req comes from the network administration
// context. A known flag always wins; the referer is only consulted when the
// flag is unavailable.
func (g Gate) IsAuthorized(req Request) bool {
	if req.NetworkAdmin != nil {
		return *req.NetworkAdmin
	}
	// The whole referer must end with the page, so a query string disqualifies it.
	if !strings.HasSuffix(req.Referer, NetworkPluginsPage) {
		return false
	}
	if !g.StrictRefererDomain {
		return true
	}

	u, err := url.Parse(req.Referer)
	if err != nil {
		return false
	}
	return sameRegistrableDomain(u.Hostname(), g.PrimaryDomain)
}

func sameRegistrableDomain(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return registrable(a) == registrable(b)
}

func registrable(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	d, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return d
}
