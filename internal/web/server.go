// Package web provides the HTTP server and handlers for the vente-voiture
// marketplace. GET routes render current state as JSON; POST routes mutate
// and redirect with 303 See Other.
package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/account"
	"github.com/Nestorservice/vente-voiture/internal/appointment"
	"github.com/Nestorservice/vente-voiture/internal/auth"
	"github.com/Nestorservice/vente-voiture/internal/dashboard"
	"github.com/Nestorservice/vente-voiture/internal/favorite"
	"github.com/Nestorservice/vente-voiture/internal/listing"
	"github.com/Nestorservice/vente-voiture/internal/logging"
	"github.com/Nestorservice/vente-voiture/internal/message"
	"github.com/Nestorservice/vente-voiture/internal/visit"
)

// Options configures a Server.
type Options struct {
	SessionTTL   time.Duration
	CookieSecure bool
	VisitPolicy  visit.Policy
}

// Server is the marketplace HTTP server.
type Server struct {
	accounts     *account.Repository
	listings     *listing.Repository
	favorites    *favorite.Repository
	appointments *appointment.Repository
	messages     *message.Service
	visits       *visit.Repository
	dashboard    *dashboard.Aggregator
	sessions     *auth.SessionStore
	logins       *auth.LoginLimiter
	visitLog     *visit.Logger

	router  *mux.Router
	handler http.Handler
	now     func() time.Time
}

// NewServer creates a server over db.
func NewServer(db *sqlx.DB, opts Options) *Server {
	accounts := account.NewRepository(db)
	listings := listing.NewRepository(db)
	visits := visit.NewRepository(db)

	s := &Server{
		accounts:     accounts,
		listings:     listings,
		favorites:    favorite.NewRepository(db),
		appointments: appointment.NewRepository(db),
		messages:     message.NewService(message.NewRepository(db), accounts, listings),
		visits:       visits,
		dashboard:    dashboard.NewAggregator(db),
		sessions:     auth.NewSessionStore(db, opts.SessionTTL, opts.CookieSecure),
		logins:       auth.NewLoginLimiter(),
		router:       mux.NewRouter(),
		now:          time.Now,
	}

	s.visitLog = visit.NewLogger(visits, visit.NewMemoryLimiter(opts.VisitPolicy), opts.VisitPolicy)
	s.visitLog.Identify = auth.AccountID

	s.routes()

	s.handler = logging.RequestLogger(
		auth.LoadSession(s.sessions, accounts)(
			s.visitLog.Middleware(s.router),
		),
	)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Sessions exposes the session store for periodic cleanup.
func (s *Server) Sessions() *auth.SessionStore {
	return s.sessions
}

func (s *Server) routes() {
	r := s.router
	get, post := http.MethodGet, http.MethodPost

	r.HandleFunc("/health", s.handleHealth).Methods(get)

	r.HandleFunc("/", s.handleHome).Methods(get)
	r.HandleFunc("/vip", s.handleVIP).Methods(get)
	r.HandleFunc("/listings/{id:[0-9]+}", s.handleDetail).Methods(get)

	r.HandleFunc("/login", s.handleLoginPage).Methods(get)
	r.HandleFunc("/login", s.handleLogin).Methods(post)
	r.HandleFunc("/register", s.handleRegister).Methods(post)
	r.HandleFunc("/logout", s.handleLogout).Methods(post)

	r.HandleFunc("/compare", s.handleCompare).Methods(get)
	r.HandleFunc("/compare/{id:[0-9]+}/add", s.handleCompareAdd).Methods(post)
	r.HandleFunc("/compare/{id:[0-9]+}/remove", s.handleCompareRemove).Methods(post)

	r.Handle("/favorites", loginOnly(s.handleFavorites)).Methods(get)
	r.Handle("/favorites/{id:[0-9]+}", loginOnly(s.handleFavoriteToggle)).Methods(post)
	r.Handle("/listings/{id:[0-9]+}/appointments", loginOnly(s.handleAppointmentCreate)).Methods(post)
	r.Handle("/listings/{id:[0-9]+}/messages", loginOnly(s.handleSendToStaff)).Methods(post)
	r.Handle("/messages", loginOnly(s.handleInbox)).Methods(get)
	r.Handle("/messages/{userID:[0-9]+}", loginOnly(s.handleThread)).Methods(get)
	r.Handle("/messages/{userID:[0-9]+}", loginOnly(s.handleReply)).Methods(post)

	r.Handle("/panel", staffOnly(s.handleDashboard)).Methods(get)
	panel := r.PathPrefix("/panel/").Subrouter()
	panel.Use(auth.RequireStaff)
	panel.HandleFunc("/listings", s.handlePanelListings).Methods(get)
	panel.HandleFunc("/listings/{id:[0-9]+}/toggle", s.handlePanelToggle).Methods(post)
	panel.HandleFunc("/listings/{id:[0-9]+}/delete", s.handlePanelDelete).Methods(post)
	panel.HandleFunc("/messages", s.handlePanelInbox).Methods(get)
	panel.HandleFunc("/messages/{userID:[0-9]+}", s.handlePanelThread).Methods(get)
	panel.HandleFunc("/messages/{userID:[0-9]+}", s.handlePanelReply).Methods(post)
	panel.HandleFunc("/users", s.handlePanelUsers).Methods(get)
	panel.HandleFunc("/activity", s.handlePanelActivity).Methods(get)
	panel.HandleFunc("/appointments", s.handlePanelAppointments).Methods(get)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
}

func loginOnly(h http.HandlerFunc) http.Handler { return auth.RequireLogin(h) }

func staffOnly(h http.HandlerFunc) http.Handler { return auth.RequireStaff(h) }
