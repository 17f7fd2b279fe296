package jwttoken

import (
	authmw "sentry/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets RequireScope validate tokens minted by JWTService.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

// ValidateToken returns the subject and scopes of a valid token.
func (a *JWTServiceAdapter) ValidateToken(token string) (*authmw.JWTClaims, error) {
	c, err := a.service.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{Subject: c.Subject, Scopes: c.Scopes}, nil
}
