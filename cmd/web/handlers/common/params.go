package common

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/internal/user"
)

const currentUserKey = "currentUser"

// RequireUUIDParam extracts a UUID route parameter or returns a 400 error.
func RequireUUIDParam(c echo.Context, param string) (uuid.UUID, error) {
	u, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return u, nil
}

// SetCurrentUser records the account resolved from the session cookie.
func SetCurrentUser(c echo.Context, u *user.User) {
	c.Set(currentUserKey, u)
}

// CurrentUser returns the signed-in account, or nil.
func CurrentUser(c echo.Context) *user.User {
	u, _ := c.Get(currentUserKey).(*user.User)
	return u
}

// RequireSessionUser returns the signed-in account or a 401 error.
func RequireSessionUser(c echo.Context) (*user.User, error) {
	u := CurrentUser(c)
	if u == nil {
		return nil, ErrUnauthorized()
	}
	return u, nil
}

// Bind decodes the request body into v, answering 400 on malformed input.
func Bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return ErrBadRequest("invalid request body")
	}
	return nil
}
