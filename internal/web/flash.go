package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"idmatch/internal/verify/models"
)

const flashCookieName = "idmatch_flash"

// flashTTL bounds how long queued messages survive before the next page
// view; a stale queue is worthless.
const flashTTL = time.Hour

// FlashQueue stores pending flash messages in a signed cookie, so they
// survive a redirect and display exactly once. Tampered or expired cookies
// are dropped silently.
type FlashQueue struct {
	signingKey []byte
	logger     *slog.Logger
}

func NewFlashQueue(signingKey string, logger *slog.Logger) *FlashQueue {
	return &FlashQueue{signingKey: []byte(signingKey), logger: logger}
}

type flashClaims struct {
	Flashes []models.Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// Push queues messages on top of whatever the request already carries.
func (q *FlashQueue) Push(w http.ResponseWriter, r *http.Request, flashes ...models.Flash) {
	pending := append(q.peek(r), flashes...)

	claims := flashClaims{
		Flashes: pending,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(flashTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(q.signingKey)
	if err != nil {
		q.logger.ErrorContext(r.Context(), "failed to sign flash cookie", "error", err.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the queued messages and clears the cookie.
func (q *FlashQueue) Pop(w http.ResponseWriter, r *http.Request) []models.Flash {
	flashes := q.peek(r)
	if _, err := r.Cookie(flashCookieName); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return flashes
}

func (q *FlashQueue) peek(r *http.Request) []models.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (any, error) {
		return q.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}
	return claims.Flashes
}
