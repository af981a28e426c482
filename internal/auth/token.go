// Package auth emite y valida los access tokens del servicio (HS256).
package auth

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidIssuer = errors.New("invalid issuer")
)

const defaultTTL = 8 * time.Hour

// Claims es lo que el resto del servicio necesita de un token válido:
// quién es (sub) y de qué tenant (tid).
type Claims struct {
	UserID   string
	TenantID string
}

// Issuer firma y parsea tokens con un secreto compartido.
type Issuer struct {
	Secret []byte
	Iss    string
	TTL    time.Duration
}

func NewIssuer(secret, iss string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{Secret: []byte(secret), Iss: iss, TTL: ttl}
}

// Issue emite un access token para el usuario dentro de su tenant.
func (i *Issuer) Issue(userID, tenantID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.TTL)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": userID,
		"tid": tenantID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse valida firma e iss y devuelve sub/tid. exp/nbf los valida jwt/v5.
func (i *Issuer) Parse(token string) (Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) { return i.Secret, nil }

	tok, err := jwtv5.Parse(token, keyfunc, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	if i.Iss != "" {
		if iss, _ := mc["iss"].(string); iss != i.Iss {
			return Claims{}, ErrInvalidIssuer
		}
	}
	sub, _ := mc["sub"].(string)
	tid, _ := mc["tid"].(string)
	if sub == "" || tid == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: sub, TenantID: tid}, nil
}
