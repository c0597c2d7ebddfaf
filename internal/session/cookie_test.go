package session

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

// Encode/Decodeで生のセッションIDが往復することを検証
func TestCookieCodec_EncodeDecode_RoundTrip(t *testing.T) {
	codec := NewCookieCodec("test-secret")

	value := codec.Encode("session-id-abc")
	id, err := codec.Decode(value)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if id != "session-id-abc" {
		t.Errorf("id = %q, want %q", id, "session-id-abc")
	}
}

// 改ざんされたCookie値はErrInvalidCookieになることを検証
func TestCookieCodec_Decode_Tampered(t *testing.T) {
	codec := NewCookieCodec("test-secret")
	value := codec.Encode("session-id-abc")

	tests := []struct {
		name  string
		value string
	}{
		{"signature replaced", "session-id-abc.deadbeef"},
		{"id replaced", "other-session-id." + strings.SplitN(value, ".", 2)[1]},
		{"no separator", "session-id-abc"},
		{"empty value", ""},
		{"empty id", ".abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.value)
			if !errors.Is(err, ErrInvalidCookie) {
				t.Errorf("Decode(%q) error = %v, want ErrInvalidCookie", tt.value, err)
			}
		})
	}
}

// 異なるシークレットで署名された値は受理しないことを検証
func TestCookieCodec_Decode_WrongSecret(t *testing.T) {
	value := NewCookieCodec("secret-a").Encode("session-id-abc")

	_, err := NewCookieCodec("secret-b").Decode(value)
	if !errors.Is(err, ErrInvalidCookie) {
		t.Errorf("error = %v, want ErrInvalidCookie", err)
	}
}

// SetCookieがSESSION Cookieを正しい属性で発行することを検証
func TestSetCookie_Attributes(t *testing.T) {
	w := httptest.NewRecorder()
	SetCookie(w, "cookie-value", CookieOptions{Secure: true, MaxAge: 86400})

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != "SESSION" {
		t.Errorf("Name = %q, want SESSION", c.Name)
	}
	if c.Value != "cookie-value" {
		t.Errorf("Value = %q, want cookie-value", c.Value)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.SameSite != 2 { // http.SameSiteLaxMode
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if !c.HttpOnly {
		t.Error("expected HttpOnly")
	}
	if !c.Secure {
		t.Error("expected Secure")
	}
}

// ClearCookieが負のMaxAgeでCookieを失効させることを検証
func TestClearCookie_Expires(t *testing.T) {
	w := httptest.NewRecorder()
	ClearCookie(w, CookieOptions{})

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative", cookies[0].MaxAge)
	}
}
