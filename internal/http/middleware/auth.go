package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aanand-mishra/student-records-api/internal/auth"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// Reasons reported to a FailureRecorder.
const (
	ReasonMissing = "missing"
	ReasonScheme  = "scheme"
	ReasonExpired = "expired"
	ReasonInvalid = "invalid"
)

const bearerScheme = "bearer"

type contextKey struct{}

var subjectKey = contextKey{}

// TokenValidator checks a bearer token and returns its subject.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// FailureRecorder is told why a request was rejected.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// SubjectFromContext returns the token subject stored by RequireToken.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}

// ContextWithSubject stores subject the way RequireToken does.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// bearerToken extracts the credentials from an "Authorization: Bearer x"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (token string, reason string) {
	if header == "" {
		return "", ReasonMissing
	}

	scheme, credentials, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", ReasonScheme
	}

	credentials = strings.TrimSpace(credentials)
	if credentials == "" {
		return "", ReasonMissing
	}

	return credentials, ""
}

// RequireToken rejects requests without a valid bearer token with 401
// before next runs. On success the token subject is available through
// SubjectFromContext. recorder may be nil.
func RequireToken(validator TokenValidator, recorder FailureRecorder) func(next http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, reason, msg string) {
		if recorder != nil {
			recorder.RecordAuthFailure(reason)
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		response.WriteJSON(w, http.StatusUnauthorized, response.Error(msg))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r.Header.Get("Authorization"))
			switch reason {
			case ReasonMissing:
				reject(w, reason, "Not authenticated")
				return
			case ReasonScheme:
				reject(w, reason, "Invalid authentication scheme")
				return
			}

			subject, err := validator.Validate(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpired) {
					reject(w, ReasonExpired, "Token expired")
				} else {
					reject(w, ReasonInvalid, "Invalid token")
				}
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.subject = subject
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		})
	}
}
