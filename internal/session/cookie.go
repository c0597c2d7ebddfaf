package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// CookieName はセッションCookieの名前。
const CookieName = "SESSION"

// ErrInvalidCookie はCookie値の署名検証に失敗したことを示す。
// 改ざんされたCookieはCookieなしと同様に扱うこと。
var ErrInvalidCookie = fmt.Errorf("invalid session cookie")

// CookieCodec はセッションIDとCookie値の相互変換を行う。
// Cookie値は "<id>.<hmac>" 形式で、HMAC-SHA256署名により
// ストアを経由しないID偽造を防ぐ。
type CookieCodec struct {
	secret []byte
}

// NewCookieCodec はCookieCodecを生成する。
func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret)}
}

// Encode はセッションIDを署名付きCookie値に変換する。
func (c *CookieCodec) Encode(sessionID string) string {
	return sessionID + "." + c.sign(sessionID)
}

// Decode はCookie値を検証して生のセッションIDを取り出す。
// 形式不正または署名不一致の場合はErrInvalidCookieを返す。
func (c *CookieCodec) Decode(value string) (string, error) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", ErrInvalidCookie
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return "", ErrInvalidCookie
	}
	return id, nil
}

func (c *CookieCodec) sign(sessionID string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// CookieOptions はセッションCookieの発行属性。
type CookieOptions struct {
	Domain string
	Secure bool
	MaxAge int // 秒
}

// SetCookie はセッションCookieをクライアントに発行する。
// SameSite=LaxはOAuthリダイレクト（トップレベルGET）でCookieが
// 送信されるために必要。
func SetCookie(w http.ResponseWriter, value string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie はセッションCookieをクライアントから削除する。
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
