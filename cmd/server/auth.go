package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nickyhof/CommitKV/config"
)

// authRequest is a parsed AUTH line.
type authRequest struct {
	method   string // "BASIC" or "JWT"
	username string
	password string
	token    string
}

// parseAuthCommand parses the arguments of an AUTH command.
// Supported formats:
//   - AUTH BASIC <user> <password>
//   - AUTH JWT <token>
func parseAuthCommand(args string) (authRequest, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return authRequest{}, errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	method := strings.ToUpper(parts[0])
	switch method {
	case "BASIC":
		if len(parts) != 3 {
			return authRequest{}, errors.New("invalid AUTH command: expected AUTH BASIC <user> <password>")
		}
		return authRequest{method: method, username: parts[1], password: parts[2]}, nil
	case "JWT":
		if len(parts) != 2 {
			return authRequest{}, errors.New("invalid AUTH command: expected AUTH JWT <token>")
		}
		return authRequest{method: method, token: parts[1]}, nil
	default:
		return authRequest{}, fmt.Errorf("unsupported auth type: %s", parts[0])
	}
}

// jwtResult is the outcome of validating a token.
type jwtResult struct {
	username  string
	expiresAt time.Time
}

// validateJWT checks the token against the configured HMAC secret, issuer
// and audience and returns the account named by the name claim.
func validateJWT(cfg config.AuthConfig, tokenString string) (jwtResult, error) {
	if cfg.JWTSecret == "" {
		return jwtResult{}, errors.New("JWT authentication not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))

	if err != nil {
		return jwtResult{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return jwtResult{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwtResult{}, errors.New("invalid token claims")
	}

	if cfg.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != cfg.Issuer {
			return jwtResult{}, fmt.Errorf("invalid issuer: expected %s, got %s", cfg.Issuer, issuer)
		}
	}

	if cfg.Audience != "" {
		audiences, _ := claims.GetAudience()
		found := false
		for _, aud := range audiences {
			if aud == cfg.Audience {
				found = true
				break
			}
		}
		if !found {
			return jwtResult{}, fmt.Errorf("invalid audience: expected %s", cfg.Audience)
		}
	}

	nameClaim := cfg.NameClaim
	if nameClaim == "" {
		nameClaim = "sub"
	}
	name, _ := claims[nameClaim].(string)
	if name == "" {
		return jwtResult{}, fmt.Errorf("token missing identity claim %s", nameClaim)
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return jwtResult{username: name, expiresAt: expiresAt}, nil
}
