package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-records-api/internal/account"
	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

type fakeService struct {
	loginToken string
	loginErr   error
	grant      account.ResetGrant
	resetErr   error
	setErr     error

	gotResetToken string
}

func (f *fakeService) Login(_ context.Context, _, _ string) (string, error) {
	return f.loginToken, f.loginErr
}

func (f *fakeService) RequestReset(_ context.Context, _, _ string) (account.ResetGrant, error) {
	return f.grant, f.resetErr
}

func (f *fakeService) ResetPassword(_ context.Context, _, _, resetToken string) error {
	f.gotResetToken = resetToken
	return f.setErr
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Error
}

func TestHome(t *testing.T) {
	w := httptest.NewRecorder()
	Home().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if w.Code != http.StatusOK || body["message"] != "Backend running successfully" {
		t.Errorf("got %d %v", w.Code, body)
	}
}

func TestLogin_Success(t *testing.T) {
	svc := &fakeService{loginToken: "tok"}

	w := post(Login(svc), `{"email":"a@b.com","password":"pw"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got types.LoginResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.AccessToken != "tok" || got.TokenType != "bearer" {
		t.Errorf("body = %+v", got)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &fakeService{loginErr: account.ErrInvalidCredentials}

	w := post(Login(svc), `{"email":"a@b.com","password":"pw"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if msg := errorMessage(t, w); msg != "Invalid email or password" {
		t.Errorf("message = %q", msg)
	}
}

func TestLogin_NonEmailIdentityIsUnauthorized(t *testing.T) {
	svc := &fakeService{loginErr: account.ErrInvalidCredentials}

	w := post(Login(svc), `{"email":"admin","password":"pw"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLogin_MissingFieldsIsValidationError(t *testing.T) {
	w := post(Login(&fakeService{}), `{"email":"a@b.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSendOTP(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeService
		wantStatus int
		wantToken  string
	}{
		{"verified", &fakeService{}, http.StatusOK, ""},
		{"verified with binding", &fakeService{grant: account.ResetGrant{Token: "rt-1"}}, http.StatusOK, "rt-1"},
		{"wrong code", &fakeService{resetErr: account.ErrInvalidCode}, http.StatusBadRequest, ""},
		{"unknown email", &fakeService{resetErr: account.ErrUnknownEmail}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(SendOTP(tt.svc), `{"email":"a@b.com","code":"1234"}`)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Code != http.StatusOK {
				return
			}
			var got types.RecoveryResponse
			json.NewDecoder(w.Body).Decode(&got)
			if !got.Success || got.Message != "OTP Verified. Proceed to Reset Password" || got.ResetToken != tt.wantToken {
				t.Errorf("body = %+v", got)
			}
		})
	}
}

func TestResetPassword(t *testing.T) {
	svc := &fakeService{}

	w := post(ResetPassword(svc), `{"email":"a@b.com","new_password":"new","reset_token":"rt-1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.gotResetToken != "rt-1" {
		t.Errorf("reset token passed = %q", svc.gotResetToken)
	}
	var got types.RecoveryResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.Message != "Password changed successfully" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestResetPassword_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{account.ErrUnknownEmail, http.StatusNotFound},
		{account.ErrInvalidResetToken, http.StatusBadRequest},
		{account.ErrPasswordTooLong, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := post(ResetPassword(&fakeService{setErr: tt.err}), `{"email":"a@b.com","new_password":"new"}`)
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}

func TestResetPassword_OverlongPasswordRejectedBeforeService(t *testing.T) {
	svc := &fakeService{}
	body := `{"email":"a@b.com","new_password":"` + strings.Repeat("é", 72) + `","reset_token":"rt-1"}`

	w := post(ResetPassword(svc), body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if svc.gotResetToken != "" {
		t.Error("service was called")
	}
	if msg := errorMessage(t, w); msg != "field NewPassword must be at most 72 bytes" {
		t.Errorf("message = %q", msg)
	}
}
