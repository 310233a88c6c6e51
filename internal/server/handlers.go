package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sw33tLie/msupdater/internal/utils"
	"github.com/sw33tLie/msupdater/pkg/activation"
	"github.com/sw33tLie/msupdater/pkg/gate"
	"github.com/sw33tLie/msupdater/pkg/multisite"
	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/update"
)

// NetworkAdminHeader carries the caller's network-admin flag, when it has one.
const NetworkAdminHeader = "X-Network-Admin"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type siteView struct {
	ID         network.SiteID `json:"id"`
	Domain     string         `json:"domain"`
	Path       string         `json:"path"`
	URL        string         `json:"url"`
	RootDomain string         `json:"root_domain"`
	Registered time.Time      `json:"registered"`
	Primary    bool           `json:"primary"`
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	dir := network.NewDirectory(s.DB)
	sites, err := dir.ListSites(r.Context(), s.NetworkID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]siteView, 0, len(sites))
	for _, site := range sites {
		primary, _ := dir.IsPrimary(r.Context(), site)
		out = append(out, siteView{
			ID:         site.ID,
			Domain:     site.Domain,
			Path:       site.Path,
			URL:        site.URL(),
			RootDomain: site.RootDomain(),
			Registered: site.Registered,
			Primary:    primary,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type checkResponse struct {
	*multisite.Report
	Errors []string `json:"errors,omitempty"`
}

// gateRequest derives the origin hints from the incoming request. An absent or
// unparsable admin header leaves the flag unknown.
func gateRequest(r *http.Request) gate.Request {
	req := gate.Request{Referer: r.Referer()}
	if v := r.Header.Get(NetworkAdminHeader); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			req.NetworkAdmin = &b
		}
	}
	return req
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.Lock != nil {
		if err := s.Lock.Lock(); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		defer s.Lock.Unlock()
	}

	ctx := r.Context()
	cache, err := s.DB.LoadUpdateCache(ctx, s.NetworkID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	report, err := s.Checker.Check(ctx, activation.NewRun(), gateRequest(r), cache)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !report.Authorized {
		writeError(w, http.StatusForbidden, gate.ErrUnauthorized)
		return
	}
	if err := s.DB.SaveUpdateCache(ctx, s.NetworkID, cache); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := checkResponse{Report: report}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	utils.Log.Infof("Run %s: %d updates, %d errors", report.RunID, report.Count(multisite.StatusUpdateAvailable), len(report.Errors))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	cache, err := s.DB.LoadUpdateCache(r.Context(), s.NetworkID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cache)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	ext := r.URL.Query().Get("extension")
	if ext == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing extension parameter"))
		return
	}

	cache, err := s.DB.LoadUpdateCache(r.Context(), s.NetworkID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	info, err := s.Checker.Information(r.Context(), ext, cache)
	switch {
	case errors.Is(err, multisite.ErrNotLicensed):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, update.ErrRequest):
		writeError(w, http.StatusBadGateway, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, info)
	}
}
