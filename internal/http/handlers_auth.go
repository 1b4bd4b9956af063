package http

import (
	"errors"
	"net/http"
	"net/url"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", pageData{Title: "Sign In", Flash: r.URL.Query().Get("flash")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	email := formValue(r, "email")
	session, err := s.svc.Accounts.SignIn(r.Context(), email, r.FormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.metrics.failedSignIns.Add(1)
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).WarnContext(r.Context(), "Sign-in rejected",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldErrorType, log.ErrorTypeAuth)
		data := pageData{
			Title:  "Sign In",
			Errors: core.ValidationErrors{"form": err.Error()},
			Form:   url.Values{"email": {email}},
		}
		status := http.StatusUnprocessableEntity
		if isHTMX(r) {
			s.renderBlock(w, r, status, "login", "auth-form", data)
			return
		}
		s.renderBlock(w, r, status, "login", layoutTemplate, data)
		return
	}
	if err != nil {
		s.internalError(w, r, err, "sign_in")
		return
	}

	s.metrics.signIns.Add(1)
	s.cookies.Set(w, session.Token)
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "User signed in",
		log.FieldUserID, session.UserID)
	succeeded(w, r, NewHTMXResponse().Redirect(dashboardPath), dashboardPath)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup", pageData{Title: "Create Account"})
}

// handleSignup creates the account and signs the user in straight away. The
// confirmation link is logged since outgoing mail is not configured.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	in := core.SignUpInput{
		Email:           formValue(r, "email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
	u, err := s.svc.Accounts.SignUp(r.Context(), in)
	if err != nil {
		data := pageData{Title: "Create Account"}
		s.formFailed(w, r, "signup", "auth-form", data, err, "sign_up")
		return
	}

	logger := log.FromContext(r.Context()).WithComponent(log.ComponentAuth)
	logger.InfoContext(r.Context(), "Account created",
		log.FieldUserID, u.ID,
		"confirm_url", "/auth/callback?token="+url.QueryEscape(u.ConfirmToken))

	session, err := s.svc.Accounts.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		s.internalError(w, r, err, "sign_in")
		return
	}
	s.cookies.Set(w, session.Token)
	succeeded(w, r, NewHTMXResponse().Redirect(dashboardPath), dashboardPath)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Accounts.SignOut(r.Context(), auth.Token(r)); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).WarnContext(r.Context(), "Sign-out failed",
			log.FieldError, err)
	}
	s.cookies.Clear(w)
	succeeded(w, r, NewHTMXResponse().Redirect(loginPath), loginPath)
}

// handleConfirm is the target of the confirmation link.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	_, err := s.svc.Accounts.Confirm(r.Context(), r.URL.Query().Get("token"))
	if errors.Is(err, services.ErrInvalidToken) {
		s.render(w, r, http.StatusBadRequest, "confirm", pageData{Title: "Confirm Email", Flash: err.Error()})
		return
	}
	if err != nil {
		s.internalError(w, r, err, "confirm_email")
		return
	}
	s.render(w, r, http.StatusOK, "confirm", pageData{Title: "Confirm Email", View: true})
}
