package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/lessonstream/internal/user"
)

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionName)
	return nil
}

func TestSessionManager_SaveAndGetSession_RoundTrip(t *testing.T) {
	sm := NewSessionManager("test-secret")
	u := &user.User{ID: uuid.New(), Username: "alice", Role: user.RoleInstructor}

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.SaveSession(rr, req, u))

	cookie := sessionCookie(t, rr)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)

	req2 := httptest.NewRequest("GET", "http://example.com/", nil)
	req2.AddCookie(cookie)

	uid, uname, err := sm.GetSession(req2)
	require.NoError(t, err)
	require.Equal(t, u.ID, uid)
	require.Equal(t, "alice", uname)
	require.True(t, sm.IsAuthenticated(req2))

	role, ok := sm.GetRole(req2)
	require.True(t, ok)
	require.Equal(t, user.RoleInstructor, role)

	createdAt := sm.GetSessionCreatedAt(req2)
	require.False(t, createdAt.IsZero())
	require.WithinDuration(t, time.Now(), createdAt, 5*time.Second)
}

func TestSessionManager_SaveSession_SecureDetection(t *testing.T) {
	sm := NewSessionManager("test-secret")
	u := &user.User{ID: uuid.New(), Username: "alice", Role: user.RoleStudent}

	t.Run("tls implies secure", func(t *testing.T) {
		req := httptest.NewRequest("GET", "https://example.com/", nil)
		req.TLS = &tls.ConnectionState{}
		rr := httptest.NewRecorder()
		require.NoError(t, sm.SaveSession(rr, req, u))
		require.True(t, sessionCookie(t, rr).Secure)
	})

	t.Run("x-forwarded-proto implies secure", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://example.com/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		rr := httptest.NewRecorder()
		require.NoError(t, sm.SaveSession(rr, req, u))
		require.True(t, sessionCookie(t, rr).Secure)
	})

	t.Run("plain http", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://example.com/", nil)
		rr := httptest.NewRecorder()
		require.NoError(t, sm.SaveSession(rr, req, u))
		require.False(t, sessionCookie(t, rr).Secure)
	})
}

func TestSessionManager_GetSession_NotAuthenticated(t *testing.T) {
	sm := NewSessionManager("test-secret")

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	uid, uname, err := sm.GetSession(req)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Equal(t, uuid.Nil, uid)
	require.Equal(t, "", uname)
	require.False(t, sm.IsAuthenticated(req))

	_, ok := sm.GetRole(req)
	require.False(t, ok)
	require.True(t, sm.GetSessionCreatedAt(req).IsZero())
}

func TestSessionManager_GetSession_BadCookie(t *testing.T) {
	sm := NewSessionManager("test-secret")

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "this-is-not-a-valid-cookie"})

	uid, uname, err := sm.GetSession(req)
	require.Error(t, err)
	require.Equal(t, uuid.Nil, uid)
	require.Equal(t, "", uname)
}

func TestSessionManager_OtherSecretRejected(t *testing.T) {
	u := &user.User{ID: uuid.New(), Username: "alice", Role: user.RoleAdmin}
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, NewSessionManager("secret-a").SaveSession(rr, req, u))

	req2 := httptest.NewRequest("GET", "http://example.com/", nil)
	req2.AddCookie(sessionCookie(t, rr))
	require.False(t, NewSessionManager("secret-b").IsAuthenticated(req2))
}

func TestSessionManager_ClearSession(t *testing.T) {
	sm := NewSessionManager("test-secret")

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.ClearSession(rr, req))

	setCookies := rr.Result().Header.Values("Set-Cookie")
	require.NotEmpty(t, setCookies)

	var found bool
	for _, v := range setCookies {
		if strings.HasPrefix(v, SessionName+"=") {
			found = true
			require.True(t, strings.Contains(v, "Max-Age=0") || strings.Contains(v, "Max-Age=-1") || strings.Contains(v, "Expires="))
			break
		}
	}
	require.True(t, found)
}
