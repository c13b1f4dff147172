package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indica un token ausente, malformado o con firma invalida.
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier extrae el principal de un bearer token ya emitido por
// el proveedor de identidad. El core nunca ve credenciales: solo el
// subject opaco que queda como principal id.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// PrincipalID valida firma y expiracion y devuelve el subject.
func (v *TokenVerifier) PrincipalID(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(v.secret) == 0 {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
