package network

import (
	"strconv"
	"strings"
	"time"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// NetworkID identifies a multisite network (wp_site.id).
type NetworkID int64

// SiteID identifies a member site of a network (wp_blogs.blog_id).
type SiteID int64

func (id SiteID) String() string { return strconv.FormatInt(int64(id), 10) }

// Site is a single member of a network as enumerated for one resolution run.
type Site struct {
	ID         SiteID
	NetworkID  NetworkID
	Domain     string
	Path       string
	Registered time.Time

	// Status flags. Only public, live sites take part in a run.
	Public   bool
	Archived bool
	Mature   bool
	Spam     bool
	Deleted  bool
}

// Eligible reports whether the site may take part in license discovery.
func (s Site) Eligible() bool {
	return s.Public && !s.Archived && !s.Mature && !s.Spam && !s.Deleted
}

// URL returns the site's home URL, e.g. https://example.com/blog.
func (s Site) URL() string {
	return "https://" + strings.ToLower(s.Domain) + strings.TrimRight(s.Path, "/")
}

// RootDomain returns the registrable domain of the site's host.
// Falls back to the bare domain when the public suffix list can't parse it.
func (s Site) RootDomain() string {
	host := strings.ToLower(s.Domain)
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return domain
}
