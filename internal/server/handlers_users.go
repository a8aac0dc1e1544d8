package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jabiru-analytics/jabiru/internal/auth"
	"github.com/jabiru-analytics/jabiru/internal/models"
	"github.com/jabiru-analytics/jabiru/internal/store"
)

type registerRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (req *registerRequest) validate() error {
	req.Username = strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(req.Username); n < 3 || n > 50 {
		return errors.New("username must be between 3 and 50 characters")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil || addr.Address != strings.TrimSpace(req.Email) {
		return errors.New("email must be a valid email address")
	}
	req.Email = addr.Address
	if n := utf8.RuneCountInString(req.Password); n < 8 || n > 100 {
		return errors.New("password must be between 8 and 100 characters")
	}
	for _, name := range []*string{req.FirstName, req.LastName} {
		if name != nil && utf8.RuneCountInString(*name) > 100 {
			return errors.New("names must be at most 100 characters")
		}
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := s.store.UserExists(r.Context(), req.Username, req.Email)
	if err != nil {
		s.internalError(w, "register: lookup failed", err)
		return
	}
	switch taken {
	case "username":
		s.respondError(w, http.StatusBadRequest, "Username already registered")
		return
	case "email":
		s.respondError(w, http.StatusBadRequest, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		s.internalError(w, "register: hash failed", err)
		return
	}
	u := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.respondError(w, http.StatusBadRequest, "User with this username or email already exists")
			return
		}
		s.internalError(w, "register: create failed", err)
		return
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	s.respondJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := auth.Authenticate(r.Context(), s.store, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		auth.Unauthorized(w, "Incorrect username or password")
		return
	}
	if err != nil {
		s.internalError(w, "login failed", err)
		return
	}
	token, err := s.tokens.Issue(u.Username)
	if err != nil {
		s.internalError(w, "login: issue token", fmt.Errorf("user %s: %w", u.ID, err))
		return
	}
	s.respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, currentUser(r))
}
