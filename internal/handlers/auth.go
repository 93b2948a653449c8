package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/handlers/render"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/models"
)

// Public part of the user, password hash is never rendered
type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func handleSignup(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := userService.CreateUser(r.Context(), data.Username, data.Email, data.Password)

		switch {
		case err == nil:
			render.JSONWithStatus(w, authResponse{Message: "User created successfully", User: newUserResponse(user)}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrMissingFields):
			render.ServiceError(w, "Please provide all required fields", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrPasswordTooShort):
			render.ServiceError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.ServiceError(w, "Email already registered", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUsernameTaken):
			render.ServiceError(w, "Username already taken", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Username or email already exists", http.StatusBadRequest)
		default:
			internalError(w, l, "Server error during signup", err)
		}
	})
}

func handleLogin(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := userService.VerifyCredentials(r.Context(), data.Email, data.Password)

		switch {
		case err == nil:
			render.JSON(w, authResponse{Message: "Login successful", User: newUserResponse(user)})
		case errors.Is(err, apperrors.ErrMissingFields):
			render.ServiceError(w, "Please provide email and password", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			internalError(w, l, "Server error during login", err)
		}
	})
}

// Log unexpected error with all details and render it as 500
func internalError(w http.ResponseWriter, l logger.Logger, message string, err error) {
	l.Error(message, "error", err)
	render.InternalError(w, message, err)
}
