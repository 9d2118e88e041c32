package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Nestorservice/vente-voiture/internal/account"
	"github.com/Nestorservice/vente-voiture/internal/apperr"
	"github.com/Nestorservice/vente-voiture/internal/auth"
)

func currentAccount(r *http.Request) *account.Account {
	return auth.AccountFrom(r.Context())
}

// handleLoginPage reports who is signed in.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	acct := currentAccount(r)
	apiJSON(w, map[string]interface{}{
		"authenticated": acct != nil,
		"account":       acct,
	}, http.StatusOK)
}

// handleLogin checks credentials and starts an account session. Failed
// attempts are limited per connection address; forwarded-for headers are
// ignored here.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apiError(w, "bad request", http.StatusBadRequest)
		return
	}

	ip := auth.RemoteHost(r)
	if s.logins.Blocked(ip) {
		apiError(w, "too many attempts, try again later", http.StatusTooManyRequests)
		return
	}

	acct, err := s.accounts.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if errors.Is(err, account.ErrInvalidCredentials) {
		s.logins.Fail(ip)
		apiError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logins.Reset(ip)

	if err := s.startSession(w, r, acct); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, localPath(r.FormValue("next"), "/"))
}

// handleRegister creates a customer account and signs it in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apiError(w, "bad request", http.StatusBadRequest)
		return
	}

	password := r.FormValue("password")
	if confirm := r.FormValue("password_confirm"); confirm != "" && confirm != password {
		writeError(w, r, apperr.Invalid("password_confirm", "does not match"))
		return
	}

	acct, err := s.accounts.Create(r.Context(), r.FormValue("username"), r.FormValue("email"), password, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("account registered", "account", acct.ID, "username", acct.Username)

	if err := s.startSession(w, r, acct); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, "/")
}

// handleLogout destroys the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("destroying session", "error", err)
	}
	seeOther(w, r, "/")
}

// startSession replaces any current session with one for acct, keeping
// the visitor's session data.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, acct *account.Account) error {
	id := acct.ID
	_, err := s.sessions.Create(r.Context(), w, &id, auth.SessionFrom(r.Context()))
	return err
}

// localPath returns next when it is a same-site absolute path.
func localPath(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}
