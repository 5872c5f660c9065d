package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
	"thirdcoast.systems/lessonstream/internal/user"
)

const (
	SessionName       = "lessonstream_session"
	UserIDKey         = "user_id"
	UsernameKey       = "username"
	RoleKey           = "role"
	SessionCreatedKey = "created_at"

	sessionMaxAge = 86400 * 7
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
)

type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string) *SessionManager {
	if secret == "" {
		slog.Warn("SESSION_SECRET not set, sessions will not survive a restart")
		secret = generateSecret()
	}
	hashKey := deriveKey(secret, "lessonstream session hash", 64)
	blockKey := deriveKey(secret, "lessonstream session block", 32)
	return &SessionManager{
		store: sessions.NewCookieStore(hashKey, blockKey),
	}
}

// deriveKey expands the configured secret into a key of n bytes, so the
// cookie is both signed and encrypted from a single setting.
func deriveKey(secret, info string, n int) []byte {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		panic(err)
	}
	return key
}

func generateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// SaveSession stores the signed-in account in the session cookie.
func (sm *SessionManager) SaveSession(w http.ResponseWriter, r *http.Request, u *user.User) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Values[UserIDKey] = u.ID.String()
	session.Values[UsernameKey] = u.Username
	session.Values[RoleKey] = string(u.Role)
	session.Values[SessionCreatedKey] = time.Now().Unix()

	isHTTPS := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	session.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   isHTTPS,
	}

	return session.Save(r, w)
}

// GetSession returns the signed-in user's id and name.
func (sm *SessionManager) GetSession(r *http.Request) (userID uuid.UUID, username string, err error) {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		_, cookieErr := r.Cookie(SessionName)
		slog.Warn("failed to decode session", "error", err, "host", r.Host, "has_cookie", cookieErr == nil)
		return uuid.Nil, "", err
	}

	idStr, ok := session.Values[UserIDKey].(string)
	if !ok {
		return uuid.Nil, "", ErrNotAuthenticated
	}
	uname, ok := session.Values[UsernameKey].(string)
	if !ok {
		return uuid.Nil, "", ErrNotAuthenticated
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", ErrNotAuthenticated
	}

	return id, uname, nil
}

// GetRole reads the role stored at login. The second result is false when
// there is no valid session.
func (sm *SessionManager) GetRole(r *http.Request) (user.Role, bool) {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	str, ok := session.Values[RoleKey].(string)
	if !ok {
		return "", false
	}
	return user.ParseRole(str), true
}

func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	_, _, err := sm.GetSession(r)
	return err == nil
}

// GetSessionCreatedAt returns zero time if the session is missing or invalid.
func (sm *SessionManager) GetSessionCreatedAt(r *http.Request) time.Time {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		return time.Time{}
	}
	unix, ok := session.Values[SessionCreatedKey].(int64)
	if !ok {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

func (sm *SessionManager) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
