package multisite

import (
	"github.com/sw33tLie/msupdater/pkg/activation"
	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/update"
)

// Status is the terminal state of one extension in a run.
type Status string

const (
	StatusUpdateAvailable Status = "update_available"
	StatusNoUpdate        Status = "no_update"
	StatusNotLicensed     Status = "not_licensed"
	StatusRequestError    Status = "request_error"
	// StatusCached means the host cache already offers a package, so no
	// request was made.
	StatusCached Status = "cached"
	// StatusUnreadable means the extension's headers couldn't be read.
	StatusUnreadable Status = "unreadable"
)

// Outcome is what happened to one candidate extension.
type Outcome struct {
	ExtensionID string `json:"extension_id"`
	// FoundOn is the site the activation was attributed to.
	FoundOn network.SiteID `json:"found_on"`
	// LicenseSite is the site whose license authenticated the request.
	LicenseSite network.SiteID `json:"license_site,omitempty"`
	Status      Status         `json:"status"`
	Result      *update.Result `json:"result,omitempty"`
	Err         error          `json:"-"`
}

// Error returns the outcome's error message, if any.
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Report summarises one resolution run.
type Report struct {
	RunID      string `json:"run_id"`
	Authorized bool   `json:"authorized"`
	Sites      int    `json:"sites"`
	// Active is the host's active-extensions override: the primary site's own
	// activations plus every candidate found across the network.
	Active   []string             `json:"active,omitempty"`
	Outcomes []Outcome            `json:"outcomes,omitempty"`
	Skipped  []activation.Skipped `json:"-"`
	// Errors holds the non-fatal errors met during the run.
	Errors []error `json:"-"`
}

// Updates returns the outcomes carrying an available update.
func (r *Report) Updates() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusUpdateAvailable {
			out = append(out, o)
		}
	}
	return out
}

// Count returns how many outcomes ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}
