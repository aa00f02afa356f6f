// Package account holds the public HTTP handlers: the health message, login
// and the two password recovery steps. None of them require a token.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/account"
	"github.com/aanand-mishra/student-records-api/internal/auth"
	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

const (
	msgHome         = "Backend running successfully"
	msgOTPVerified  = "OTP Verified. Proceed to Reset Password"
	msgPasswordSet  = "Password changed successfully"
	msgInvalidLogin = "Invalid email or password"
	msgInvalidCode  = "Invalid Code. OTP not sent!"
	msgUnknownEmail = "Email not registered!"
	msgInvalidReset = "Invalid or expired reset token"
	msgPasswordLong = "field NewPassword must be at most 72 bytes"
	msgInternal     = "internal server error"
)

// Service is the subset of *account.Service the handlers use.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	RequestReset(ctx context.Context, email, code string) (account.ResetGrant, error)
	ResetPassword(ctx context.Context, email, newPassword, resetToken string) error
}

// writeServiceError maps account errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		response.WriteJSON(w, http.StatusUnauthorized, response.Error(msgInvalidLogin))
	case errors.Is(err, account.ErrInvalidCode):
		response.WriteJSON(w, http.StatusBadRequest, response.Error(msgInvalidCode))
	case errors.Is(err, account.ErrUnknownEmail):
		response.WriteJSON(w, http.StatusNotFound, response.Error(msgUnknownEmail))
	case errors.Is(err, account.ErrInvalidResetToken):
		response.WriteJSON(w, http.StatusBadRequest, response.Error(msgInvalidReset))
	case errors.Is(err, account.ErrPasswordTooLong):
		response.WriteJSON(w, http.StatusBadRequest, response.Error(msgPasswordLong))
	default:
		slog.Error("account operation failed",
			slog.String("op", op),
			slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Error(msgInternal))
	}
}

// Home handles GET / and reports that the server is up.
func Home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"message": msgHome})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Login handles POST /login
//
// Request body (JSON):
//
//	{ "email": "admin@example.com", "password": "secret" }
//
// Success response (200 OK):
//
//	{ "access_token": "<jwt>", "token_type": "bearer" }
//
// An unknown email and a wrong password both return 401 with the same
// message, so the endpoint does not reveal which accounts exist.
// ─────────────────────────────────────────────────────────────────────────────
func Login(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if !response.DecodeJSON(w, r, &req) {
			return
		}

		token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, account.ErrInvalidCredentials) {
				slog.Warn("login rejected", slog.String("email", req.Email))
			}
			writeServiceError(w, "login", err)
			return
		}

		slog.Info("admin logged in", slog.String("email", req.Email))

		response.WriteJSON(w, http.StatusOK, types.LoginResponse{
			AccessToken: token,
			TokenType:   auth.TokenType,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// SendOTP handles POST /send-otp, the first recovery step.
//
// Request body (JSON):
//
//	{ "email": "admin@example.com", "code": "<recovery code>" }
//
// Success response (200 OK):
//
//	{ "success": true, "message": "OTP Verified. Proceed to Reset Password" }
//
// With reset binding enabled the response also carries "reset_token", which
// the client must send to /reset-password.
//
// Error responses:
//
//	400 Bad Request  — wrong code (checked before the email)
//	404 Not Found    — email is not an admin
//
// ─────────────────────────────────────────────────────────────────────────────
func SendOTP(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.OTPRequest
		if !response.DecodeJSON(w, r, &req) {
			return
		}

		grant, err := svc.RequestReset(r.Context(), req.Email, req.Code)
		if err != nil {
			writeServiceError(w, "send-otp", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.RecoveryResponse{
			Success:    true,
			Message:    msgOTPVerified,
			ResetToken: grant.Token,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ResetPassword handles POST /reset-password, the second recovery step.
//
// Request body (JSON):
//
//	{ "email": "admin@example.com", "new_password": "...", "reset_token": "..." }
//
// reset_token is only required when reset binding is enabled.
//
// Success response (200 OK):
//
//	{ "success": true, "message": "Password changed successfully" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ResetPassword(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ResetPasswordRequest
		if !response.DecodeJSON(w, r, &req) {
			return
		}

		if err := svc.ResetPassword(r.Context(), req.Email, req.NewPassword, req.ResetToken); err != nil {
			writeServiceError(w, "reset-password", err)
			return
		}

		slog.Info("admin password changed", slog.String("email", req.Email))

		response.WriteJSON(w, http.StatusOK, types.RecoveryResponse{
			Success: true,
			Message: msgPasswordSet,
		})
	}
}
