// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, services and storage can all import types without depending
// on each other.
package types

// Student represents a student registration record.
//
// Reg is chosen by the caller and is the primary key; it never changes
// after the record is created.
type Student struct {
	Reg            int64  `json:"reg"            validate:"required,gt=0"`
	Name           string `json:"name"           validate:"required"`
	Degree         string `json:"degree"         validate:"required"`
	Specialization string `json:"specialization" validate:"required"`
	Address        string `json:"address"        validate:"required"`
	PhoneNo        string `json:"phone_no"       validate:"required"`
}

// Admin is an account allowed to log in. PasswordHash is a bcrypt hash and
// is never encoded to JSON.
type Admin struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// ResetToken binds a /send-otp call to the /reset-password call that
// follows it. ExpiresAt is unix seconds.
type ResetToken struct {
	ID        string
	Email     string
	ExpiresAt int64
}

// LoginRequest is the body of POST /login. Email is not format-checked: a
// malformed identity fails the same way as an unknown one.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// OTPRequest is the body of POST /send-otp.
type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required"`
}

// ResetPasswordRequest is the body of POST /reset-password. ResetToken is
// only checked when reset binding is enabled.
type ResetPasswordRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,maxbytes=72"`
	ResetToken  string `json:"reset_token,omitempty"`
}

// RecoveryResponse is returned by both recovery endpoints.
type RecoveryResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}
