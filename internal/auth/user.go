package auth

import (
	"time"

	"github.com/boltdb/bolt"

	"github.com/dealops/dealflow/misc"
)

type Login struct {
	UserId   string `json:"userId"`
	Password string `json:"password"`
}

type User struct {
	Id    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Type  Scope  `json:"type,omitempty"`

	// Set by the billing collaborator; consulted by the bid gate when
	// subscription enforcement is turned on.
	Subscribed bool `json:"subscribed,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

type SignupUser struct {
	User
	Password string `json:"pass"`
}

func (a *Auth) GetUserTx(tx *bolt.Tx, userId string) *User {
	var u User
	if misc.GetTxJson(tx, a.cfg.Bucket.User, userId, &u) == nil && u.Id != "" {
		return &u
	}
	return nil
}

func (a *Auth) GetUser(userId string) (u *User) {
	a.db.View(func(tx *bolt.Tx) error {
		u = a.GetUserTx(tx, userId)
		return nil
	})
	return
}

func (u *User) StoreTx(a *Auth, tx *bolt.Tx) error {
	return misc.PutTxJson(tx, a.cfg.Bucket.User, u.Id, u)
}

func (a *Auth) GetLoginTx(tx *bolt.Tx, email string) *Login {
	email = misc.TrimEmail(email)

	var l Login
	if misc.GetTxJson(tx, a.cfg.Bucket.Login, email, &l) == nil && l.UserId != "" {
		return &l
	}
	return nil
}

// EnsureAdmin seeds the administrative account on first boot; a no-op when
// the login already exists.
func (a *Auth) EnsureAdmin(email, pass string) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		if l := a.GetLoginTx(tx, email); l != nil {
			return nil
		}
		_, err := a.CreateUserTx(tx, &SignupUser{
			User:     User{Name: "admin", Email: email, Type: AdminScope},
			Password: pass,
		})
		return err
	})
}

// CreateUserTx registers the user row and its login row in one transaction.
func (a *Auth) CreateUserTx(tx *bolt.Tx, su *SignupUser) (*User, error) {
	email := misc.TrimEmail(su.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if !su.Type.Valid() {
		return nil, ErrInvalidScope
	}
	if l := a.GetLoginTx(tx, email); l != nil {
		return nil, ErrEmailExists
	}

	hash, err := HashPassword(su.Password)
	if err != nil {
		return nil, err
	}

	id, err := misc.GetNextIndex(tx, a.cfg.Bucket.User)
	if err != nil {
		return nil, err
	}

	u := su.User
	u.Id = id
	u.Email = email
	// The billing collaborator owns this flag; a signup payload claiming it
	// must not stick.
	u.Subscribed = false
	u.CreatedAt = time.Now().Unix()
	u.UpdatedAt = 0

	if err := u.StoreTx(a, tx); err != nil {
		return nil, err
	}
	if err := misc.PutTxJson(tx, a.cfg.Bucket.Login, email, &Login{UserId: id, Password: hash}); err != nil {
		return nil, err
	}
	return &u, nil
}
