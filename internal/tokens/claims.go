package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the part of an account that ends up inside an access token.
type Identity struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// AccessClaims is the closed claim set carried by every access token.
type AccessClaims struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewAccessClaims(id Identity) AccessClaims {
	return AccessClaims{
		Name:   id.Name,
		Email:  id.Email,
		UserID: id.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id.Email,
			ID:      uuid.NewString(),
		},
	}
}

// Identity decodes the claims back into the identity they were built from.
func (c *AccessClaims) Identity() (Identity, error) {
	if c.Email == "" {
		return Identity{}, errors.New("email claim is empty")
	}
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: id, Name: c.Name, Email: c.Email}, nil
}
