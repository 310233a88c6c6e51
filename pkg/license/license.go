// Package license discovers a usable license for an extension across the
// sites of a network.
package license

import (
	"fmt"
	"strings"

	"github.com/sw33tLie/msupdater/pkg/network"
)

// Candidate is a possibly incomplete license as reported for one site.
type Candidate struct {
	ExtensionID string
	Slug        string
	SiteID      network.SiteID
	SiteURL     string

	License  string
	ItemName string
	Version  string
	APIURL   string
	Author   string
}

// Record is a Candidate whose license key, item name, version and API URL
// are all set. Only a Record can authenticate an update check.
type Record struct {
	Candidate
}

// IncompleteError lists the fields a Candidate is missing.
type IncompleteError struct {
	SiteID  network.SiteID
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("license on site %d is incomplete: missing %s", e.SiteID, strings.Join(e.Missing, ", "))
}

// Validate turns a complete Candidate into a Record. An incomplete one yields
// an *IncompleteError naming every empty field.
func (c Candidate) Validate() (Record, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"license", c.License},
		{"item_name", c.ItemName},
		{"version", c.Version},
		{"api_url", c.APIURL},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Record{}, &IncompleteError{SiteID: c.SiteID, Missing: missing}
	}
	return Record{Candidate: c}, nil
}
