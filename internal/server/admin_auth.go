package server

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

var errNoAdmin = errors.New("invalid admin credentials")

// AdminCredentials guard catalog writes with HTTP basic auth. An empty
// PasswordHash disables the admin routes.
type AdminCredentials struct {
	User         string
	PasswordHash string
}

func (c AdminCredentials) Enabled() bool { return c.PasswordHash != "" }

func (c AdminCredentials) verify(r *http.Request) error {
	user, pass, ok := r.BasicAuth()
	if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) != 1 {
		return errNoAdmin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(pass)); err != nil {
		return errNoAdmin
	}
	return nil
}
