package server

import (
	"net/http"
	"sync"

	"github.com/sw33tLie/msupdater/internal/utils"
	"github.com/sw33tLie/msupdater/pkg/multisite"
	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/storage"
)

// Locker serializes resolution runs across processes.
type Locker interface {
	Lock() error
	Unlock() error
}

type Server struct {
	DB        *storage.DB
	Checker   *multisite.Checker
	NetworkID network.NetworkID
	// Lock is optional; runs started through this server are always
	// serialized among themselves.
	Lock     Locker
	Username string
	Password string

	runMu sync.Mutex
}

func New(db *storage.DB, checker *multisite.Checker, networkID network.NetworkID, user, pass string) *Server {
	return &Server{
		DB:        db,
		Checker:   checker,
		NetworkID: networkID,
		Username:  user,
		Password:  pass,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/sites", s.basicAuth(s.handleSites))
	mux.HandleFunc("POST /api/check", s.basicAuth(s.handleCheck))
	mux.HandleFunc("GET /api/updates", s.basicAuth(s.handleUpdates))
	mux.HandleFunc("GET /api/info", s.basicAuth(s.handleInfo))

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
