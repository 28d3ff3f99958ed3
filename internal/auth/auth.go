package auth

import (
	"errors"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gbrlsnchs/jwt/v3"

	"github.com/dealops/dealflow/config"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidPass  = errors.New("invalid password")
	ErrInvalidScope = errors.New("invalid user type")
	ErrEmailExists  = errors.New("email already registered")
	ErrBadToken     = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

type Auth struct {
	db  *bolt.DB
	cfg *config.Config
	alg *jwt.HMACSHA
}

func New(db *bolt.DB, cfg *config.Config) *Auth {
	return &Auth{
		db:  db,
		cfg: cfg,
		alg: jwt.NewHS256([]byte(cfg.TokenSecret)),
	}
}

// TokenPayload is the signed credential handed out at sign-in and presented
// on every API call and at the feed handshake.
type TokenPayload struct {
	jwt.Payload
	UserId string `json:"userId"`
	Scope  Scope  `json:"scope"`
}

func (a *Auth) IssueToken(u *User) (string, error) {
	now := time.Now()
	p := TokenPayload{
		Payload: jwt.Payload{
			Subject:        u.Id,
			IssuedAt:       jwt.NumericDate(now),
			ExpirationTime: jwt.NumericDate(now.Add(a.cfg.TokenAge * time.Hour)),
		},
		UserId: u.Id,
		Scope:  u.Type,
	}
	tok, err := jwt.Sign(&p, a.alg)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

// VerifyToken checks the signature and expiry and returns the payload.
func (a *Auth) VerifyToken(token string) (*TokenPayload, error) {
	var p TokenPayload
	if _, err := jwt.Verify([]byte(token), a.alg, &p); err != nil {
		return nil, ErrBadToken
	}
	if p.UserId == "" || !p.Scope.Valid() {
		return nil, ErrBadToken
	}
	if p.ExpirationTime == nil || time.Now().After(p.ExpirationTime.Time) {
		return nil, ErrExpiredToken
	}
	return &p, nil
}

// VerifyUser resolves a token all the way to the stored user row; the row
// is the source of truth for scope, the token only names the identity.
func (a *Auth) VerifyUser(token string) (*User, error) {
	p, err := a.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	u := a.GetUser(p.UserId)
	if u == nil {
		return nil, ErrBadToken
	}
	return u, nil
}

func (a *Auth) SignInTx(tx *bolt.Tx, email, pass string) (*User, string, error) {
	l := a.GetLoginTx(tx, email)
	if l == nil {
		return nil, "", ErrInvalidEmail
	}
	if !CheckPassword(l.Password, pass) {
		return nil, "", ErrInvalidPass
	}
	u := a.GetUserTx(tx, l.UserId)
	if u == nil {
		return nil, "", ErrInvalidEmail
	}
	tok, err := a.IssueToken(u)
	return u, tok, err
}

func (a *Auth) SignIn(email, pass string) (u *User, tok string, err error) {
	a.db.View(func(tx *bolt.Tx) error {
		u, tok, err = a.SignInTx(tx, email, pass)
		return nil
	})
	return
}

func (a *Auth) SignUp(su *SignupUser) (u *User, err error) {
	err = a.db.Update(func(tx *bolt.Tx) error {
		u, err = a.CreateUserTx(tx, su)
		return err
	})
	return
}

// Subscribed reports the billing flag on the user row; used by the bid gate
// when subscription enforcement is on.
func (a *Auth) Subscribed(userId string) bool {
	u := a.GetUser(userId)
	return u != nil && u.Subscribed
}
