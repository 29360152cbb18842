package http1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCookieMapParsesMultipleCookies(t *testing.T) {
	var cm CookieMap
	cm.init([]byte("session=abc123; theme=dark; lang=en"))

	require.Equal(t, "abc123", string(cm.Get([]byte("session"))))
	require.Equal(t, "dark", string(cm.Get([]byte("theme"))))
	require.Equal(t, "en", string(cm.Get([]byte("lang"))))
}

func TestCookieMapIsCaseInsensitive(t *testing.T) {
	var cm CookieMap
	cm.init([]byte("Session=abc123"))
	require.Equal(t, "abc123", string(cm.Get([]byte("session"))))
}

func TestCookieMapStripsQuotedValue(t *testing.T) {
	var cm CookieMap
	cm.init([]byte(`token="quoted-value"`))
	require.Equal(t, "quoted-value", string(cm.Get([]byte("token"))))
}

func TestCookieMapParseIsLazy(t *testing.T) {
	var cm CookieMap
	cm.init([]byte("a=1"))
	require.False(t, cm.parsed)
	cm.Get([]byte("a"))
	require.True(t, cm.parsed)
}

func TestCookieMapMissingNameReturnsNil(t *testing.T) {
	var cm CookieMap
	cm.init([]byte("a=1"))
	require.Nil(t, cm.Get([]byte("missing")))
}

func TestCookieMapVisitAll(t *testing.T) {
	var cm CookieMap
	cm.init([]byte("a=1; b=2"))

	seen := map[string]string{}
	cm.VisitAll(func(name, value []byte) bool {
		seen[string(name)] = string(value)
		return true
	})
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, seen)
}

func TestCookieMapReset(t *testing.T) {
	var cm CookieMap
	cm.init([]byte("a=1"))
	cm.Get([]byte("a"))
	cm.Reset()
	require.Equal(t, 0, cm.count)
	require.False(t, cm.parsed)
	require.Nil(t, cm.raw)
}

func TestSetCookieString(t *testing.T) {
	sc := SetCookie{
		Name:      "session",
		Value:     "abc123",
		Path:      "/",
		HasMaxAge: true,
		MaxAge:    3600,
		HttpOnly:  true,
		Secure:    true,
		SameSite:  SameSiteStrict,
	}
	require.Equal(t, "session=abc123; Path=/; Max-Age=3600; HttpOnly; Secure; SameSite=Strict", sc.String())
}

func TestSetCookieStringMinimal(t *testing.T) {
	sc := SetCookie{Name: "a", Value: "b"}
	require.Equal(t, "a=b", sc.String())
}
