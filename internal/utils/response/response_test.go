package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age"   validate:"gt=0"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteJSON(w, http.StatusCreated, map[string]int{"reg": 1}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"reg":1}` {
		t.Errorf("body = %s", got)
	}
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	var v sample
	if DecodeJSON(w, r, &v) {
		t.Fatal("DecodeJSON should fail on empty body")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Error != ErrEmptyBody.Error() || resp.Status != StatusError {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))

	var v sample
	if DecodeJSON(w, r, &v) {
		t.Fatal("DecodeJSON should fail on malformed JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDecodeJSON_ValidationMessages(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","age":0}`))

	var v sample
	if DecodeJSON(w, r, &v) {
		t.Fatal("DecodeJSON should fail validation")
	}

	resp := decodeError(t, w)
	for _, want := range []string{
		"field Name is required",
		"field Email must be a valid email address",
		"field Age must be greater than 0",
	} {
		if !strings.Contains(resp.Error, want) {
			t.Errorf("error %q does not mention %q", resp.Error, want)
		}
	}
}

func TestDecodeJSON_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"A","email":"a@x.com","age":3}`))

	var v sample
	if !DecodeJSON(w, r, &v) {
		t.Fatalf("DecodeJSON failed: %s", w.Body.String())
	}
	if v.Name != "A" || v.Age != 3 {
		t.Errorf("decoded %+v", v)
	}
}

func TestDecodeBody_SkipsValidation(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":""}`))

	var s sample
	if !DecodeBody(w, r, &s) {
		t.Fatalf("DecodeBody rejected a well-formed body: %s", w.Body.String())
	}
	if Validate(w, s) {
		t.Fatal("Validate accepted an empty name")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestValidate_MaxBytesCountsBytes(t *testing.T) {
	type secret struct {
		Password string `validate:"maxbytes=72"`
	}

	if w := httptest.NewRecorder(); !Validate(w, secret{Password: strings.Repeat("a", 72)}) {
		t.Errorf("72 ASCII bytes rejected: %s", w.Body.String())
	}

	// 72 runes, 144 bytes.
	w := httptest.NewRecorder()
	if Validate(w, secret{Password: strings.Repeat("é", 72)}) {
		t.Fatal("144-byte password accepted")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Error != "field Password must be at most 72 bytes" {
		t.Errorf("error = %q", resp.Error)
	}
}
