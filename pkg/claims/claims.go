package claims

import (
	"errors"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

var ErrInvalidCarrier = errors.New("invalid session carrier")

// Claims is the payload of a session carrier. It names a server-side
// session and carries no user data; identity always comes from the store.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.StandardClaims
}

// Codec signs and verifies session carriers with HS256.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Encode(sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sessionID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  issuedAt.UTC().Unix(),
			ExpiresAt: expiresAt.UTC().Unix(),
		},
	})
	return token.SignedString(c.secret)
}

// Decode returns the session id named by a carrier.
func (c *Codec) Decode(carrier string) (string, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		method, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok || method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidCarrier
		}
		return c.secret, nil
	}

	cl := &Claims{}
	token, err := jwt.ParseWithClaims(carrier, cl, keyFunc)
	if err != nil || !token.Valid || cl.SessionID == "" {
		return "", ErrInvalidCarrier
	}
	return cl.SessionID, nil
}
