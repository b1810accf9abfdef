package form

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/ui"
)

// Mode selects what AuthForm.Submit does.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

func (m Mode) String() string {
	if m == ModeSignUp {
		return "sign up"
	}
	return "sign in"
}

const (
	MsgCredentialsRequired = "Email and password are required"
	MsgUsernameRequired    = "Username is required for signup"
	MsgPasswordTooShort    = "Password must be at least 6 characters"
	MsgInvalidEmail        = "Please enter a valid email"
	MsgAlreadyRegistered   = "This email is already registered. Please log in."
)

// authFields is checked in field order: credentials, then the sign-up
// username, then the password length.  PasswordTrimmed is the password
// without surrounding blanks; Password is the raw value.
type authFields struct {
	SignUp          bool   `form:"-"`
	Email           string `form:"email" validate:"required,email"`
	PasswordTrimmed string `form:"password" validate:"required"`
	Username        string `form:"username" validate:"required_if=SignUp true"`
	Password        string `form:"password" validate:"min=6"`
}

var authMessages = messages{
	"email.required":    MsgCredentialsRequired,
	"email.email":       MsgInvalidEmail,
	"password.required": MsgCredentialsRequired,
	"password.min":      MsgPasswordTooShort,
	"username":          MsgUsernameRequired,
}

// AuthForm signs a user in or registers a new account.
type AuthForm struct {
	Mode       Mode
	Email      string
	Password   string
	Username   string
	Submitting bool

	auth   gateway.Auth
	notify ui.Notifier
}

func NewAuthForm(auth gateway.Auth, notify ui.Notifier) *AuthForm {
	return &AuthForm{auth: auth, notify: notify}
}

// Toggle switches between sign-in and sign-up.
func (f *AuthForm) Toggle() {
	if f.Mode == ModeSignIn {
		f.Mode = ModeSignUp
	} else {
		f.Mode = ModeSignIn
	}
}

func (f *AuthForm) validate() error {
	return check(authFields{
		SignUp:          f.Mode == ModeSignUp,
		Email:           strings.TrimSpace(f.Email),
		PasswordTrimmed: strings.TrimSpace(f.Password),
		Username:        strings.TrimSpace(f.Username),
		Password:        f.Password,
	}, authMessages)
}

// Submit signs in or signs up depending on Mode.  A successful sign-up
// switches the form to sign-in so the user can log in with the new
// account.  The session itself arrives through the auth state listener.
func (f *AuthForm) Submit(ctx context.Context) (*model.Session, error) {
	f.Submitting = true
	defer func() { f.Submitting = false }()

	if err := f.validate(); err != nil {
		f.notify.Error(apperror.Message(err))
		return nil, err
	}
	email := strings.TrimSpace(f.Email)

	if f.Mode == ModeSignUp {
		err := f.auth.SignUp(ctx, email, f.Password, strings.TrimSpace(f.Username))
		if err != nil {
			if isAlreadyRegistered(err) {
				f.notify.Error(MsgAlreadyRegistered)
			} else {
				ui.Report(f.notify, err, "Authentication failed")
			}
			return nil, err
		}
		f.notify.Success("Account created! You can now log in.")
		f.Mode = ModeSignIn
		f.Password = ""
		return nil, nil
	}

	s, err := f.auth.SignInWithPassword(ctx, email, f.Password)
	if err != nil {
		ui.Report(f.notify, err, "Authentication failed")
		return nil, err
	}
	f.notify.Success("Welcome back!")
	f.Password = ""
	return s, nil
}

// isAlreadyRegistered matches only the service's duplicate sign-up
// message; other conflicts such as a taken username are shown verbatim.
func isAlreadyRegistered(err error) bool {
	var ge *gateway.Error
	return errors.As(err, &ge) && strings.Contains(ge.Message, gateway.AlreadyRegistered)
}
