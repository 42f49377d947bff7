package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"errorcentral/src/model"
)

type userStore interface {
	Save(ctx context.Context, userName, password string) (*model.User, error)
	Authenticate(ctx context.Context, userName, password string) (*model.User, error)
}

type tokenIssuer interface {
	Issue(now time.Time, userID uint, username string) (string, error)
}

// Users backs the createuser and token commands.
type Users struct {
	Log    *logrus.Entry
	Repo   userStore
	Tokens tokenIssuer
	Out    io.Writer
	Now    func() time.Time
}

var ErrMissingCredentials = errors.New("username and password are required")

// CreateUser creates the user or resets its password.
func (u *Users) CreateUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	user, err := u.Repo.Save(ctx, username, password)
	if err != nil {
		return err
	}

	u.Log.WithField("user_id", user.ID).Info("user saved")
	_, err = fmt.Fprintf(u.Out, "user %q saved with id %d\n", user.Username, user.ID)
	return err
}

// IssueToken checks the password and prints an access token for the user.
func (u *Users) IssueToken(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	user, err := u.Repo.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}

	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	token, err := u.Tokens.Issue(now(), user.ID, user.Username)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	u.Log.WithField("user_id", user.ID).Info("access token issued")
	_, err = fmt.Fprintln(u.Out, token)
	return err
}
