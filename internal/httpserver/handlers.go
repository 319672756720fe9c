package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authdomain "accounts/backend/internal/domain/auth"
	authusecase "accounts/backend/internal/usecase/auth"
	userusecase "accounts/backend/internal/usecase/user"

	"github.com/gorilla/mux"
)

func (s *Server) registerRoutes() {
	s.router.NotFoundHandler = http.HandlerFunc(handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	s.router.Use(s.metrics.middleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/user/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/user/login", s.handleLogin).Methods(http.MethodPost)
	// Other methods on the public paths must not fall through to /user/{id}.
	s.router.HandleFunc("/user/register", handlePostOnly)
	s.router.HandleFunc("/user/login", handlePostOnly)

	protected := s.router.PathPrefix("/user").Subrouter()
	protected.Use(s.authMiddleware)
	protected.HandleFunc("/{id}", s.handleGetUser).Methods(http.MethodGet)
	protected.HandleFunc("/{id}", s.handleUpdateUser).Methods(http.MethodPut)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "404 resource not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func handlePostOnly(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	handleMethodNotAllowed(w, r)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	defer form.Close()

	user, token, err := s.authService.Register(r.Context(), authusecase.RegisterInput{
		FirstName: form.text("firstName"),
		LastName:  form.text("lastName"),
		Email:     form.text("email"),
		Password:  form.text("password"),
		Image:     form.image,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	defer form.Close()

	token, user, err := s.authService.Login(r.Context(), authdomain.Credentials{
		Email:    form.text("email"),
		Password: form.text("password"),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.userService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	defer form.Close()

	user, err := s.userService.Update(r.Context(), mux.Vars(r)["id"], userusecase.UpdateInput{
		FirstName:       form.value("firstName"),
		LastName:        form.value("lastName"),
		Email:           form.value("email"),
		OldPassword:     form.value("oldPassword"),
		NewPassword:     form.value("newPassword"),
		ConfirmPassword: form.value("confirmPassword"),
		Image:           form.image,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if claims, ok := claimsFromContext(r.Context()); ok {
		s.logger.InfoContext(r.Context(), "user updated", "user_id", user.ID, "actor", claims.Subject)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user,
	})
}

func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (*requestForm, bool) {
	form, err := readForm(w, r, s.uploadMaxBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, errBadPayload.Error())
		}
		return nil, false
	}
	return form, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *authdomain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, authdomain.ErrEmailExists):
		writeError(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, authdomain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid password")
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type ctxKeyClaims struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authService.Authorize(extractBearerToken(r.Header.Get("Authorization")))
		if err != nil {
			reason, message := "invalid", "Invalid token"
			switch {
			case errors.Is(err, authdomain.ErrTokenMissing):
				reason, message = "missing", "Missing token"
			case errors.Is(err, authdomain.ErrTokenExpired):
				reason, message = "expired", "Token expired"
			}
			s.metrics.gateRejections.WithLabelValues(reason).Inc()
			writeError(w, http.StatusUnauthorized, message)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext returns the identity attached by authMiddleware.
func claimsFromContext(ctx context.Context) (authdomain.SessionClaims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims{}).(authdomain.SessionClaims)
	return claims, ok
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
