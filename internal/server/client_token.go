package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	commonhttp "github.com/kantineguiden/services/api/internal/interfaces/http/common"
)

// Reviews are tied to an anonymous client identity carried in a signed
// cookie. The identity is minted on first write and survives 180 days, long
// enough to keep the one-review-per-canteen rule meaningful without any
// account system.
const (
	clientCookieName   = "kg_client"
	clientCookieTTL    = 180 * 24 * time.Hour
	clientCookieMaxAge = int(clientCookieTTL / time.Second)

	clientTokenIssuer = "kantineguiden-api"
)

// clientTokenMiddleware ensures every request that reaches the guarded
// routes carries a client identity. A valid cookie is reused; anything else
// is replaced with a freshly minted identity.
func (s *Server) clientTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.clientIDFromCookie(r)
		if clientID == "" {
			var err error
			clientID, err = s.issueClientCookie(w)
			if err != nil {
				s.logger.Printf("failed to issue client token: %v", err)
				s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to establish client identity"})
				return
			}
		}

		ctx := commonhttp.ContextWithClientID(r.Context(), clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIDFromCookie returns the verified subject of the client cookie, or
// empty when the cookie is absent, expired, or tampered with.
func (s *Server) clientIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(clientCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.clientTokenSecret, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithIssuer(clientTokenIssuer))
	if err != nil || !token.Valid || claims.Subject == "" {
		return ""
	}
	return claims.Subject
}

// issueClientCookie mints a new identity, signs it, and sets the cookie on
// the response.
func (s *Server) issueClientCookie(w http.ResponseWriter) (string, error) {
	clientID := uuid.NewString()
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    clientTokenIssuer,
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(clientCookieTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.clientTokenSecret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   clientCookieMaxAge,
		HttpOnly: true,
		Secure:   s.clientCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return clientID, nil
}
