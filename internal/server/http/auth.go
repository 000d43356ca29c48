package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
)

// sessionClaims is the subset of the hosted auth access token we rely on.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	Role         string `json:"role"`
	UserMetadata struct {
		EmailVerified bool `json:"email_verified"`
	} `json:"user_metadata"`
}

// authenticate verifies the bearer session token (HS256) and returns the caller.
func (s *Server) authenticate(r *http.Request) (model.Principal, error) {
	tok := bearerToken(r.Header.Get("Authorization"))
	if tok == "" {
		return model.Principal{}, fmt.Errorf("%w: missing token", errs.ErrUnauthorized)
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return model.Principal{}, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}
	if claims.Role != "" && claims.Role != "authenticated" {
		return model.Principal{}, fmt.Errorf("%w: role %q", errs.ErrUnauthorized, claims.Role)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id.IsNil() {
		return model.Principal{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	return model.Principal{
		ID:             id,
		Email:          claims.Email,
		EmailConfirmed: claims.UserMetadata.EmailVerified,
	}, nil
}

// authMiddleware rejects requests without a valid session and stores the caller in context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticate(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
