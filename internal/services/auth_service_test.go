package services

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthenticateUser(t *testing.T) {
	c := qt.New(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	c.Assert(err, qt.IsNil)
	svc := NewAuthService("admin", string(hash))

	user, err := svc.AuthenticateUser("admin", "s3cret")
	c.Assert(err, qt.IsNil)
	c.Assert(user.Username, qt.Equals, "admin")
	c.Assert(user.Admin, qt.IsTrue)
	c.Assert(user.PasswordHash, qt.Equals, "")

	_, err = svc.AuthenticateUser("admin", "wrong")
	c.Assert(err, qt.ErrorIs, ErrUnauthorized)
	_, err = svc.AuthenticateUser("root", "s3cret")
	c.Assert(err, qt.ErrorIs, ErrUnauthorized)
}

func TestAuthenticateUserDisabled(t *testing.T) {
	_, err := NewAuthService("admin", "").AuthenticateUser("admin", "")
	qt.Assert(t, err, qt.ErrorIs, ErrForbidden)
}
