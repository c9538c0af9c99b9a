package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	cache "github.com/your-org/caster-store/internal/infrastructure/database/redis"
)

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore is the subset of the Redis client used to remember
// responses
type IdempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type storedResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key. Keys are scoped to the caller. A repeat with a different
// body is rejected with 422. Server errors are not stored so the client can
// retry them.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > 255 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Idempotency-Key is too long",
			})
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "Failed to read request body",
				})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		fingerprint := bodyFingerprint(body)

		ctx := c.Request.Context()
		base := idempotencyKey(c, key, bodySessionID(body))
		log := logrus.WithFields(logrus.Fields{"request_id": GetRequestID(c), "idempotency_key": key})

		var stored storedResponse
		err := store.GetJSON(ctx, base, &stored)
		switch {
		case err == nil && stored.Fingerprint != fingerprint:
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Idempotency-Key was already used with a different request body",
			})
			return
		case err == nil:
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		case !errors.Is(err, cache.ErrKeyNotFound):
			log.WithError(err).Warn("Idempotency store unavailable")
			c.Next()
			return
		}

		lockKey := base + ":lock"
		acquired, err := store.SetNX(ctx, lockKey, GetRequestID(c), time.Minute)
		if err != nil {
			log.WithError(err).Warn("Idempotency store unavailable")
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "A request with this Idempotency-Key is still in progress",
			})
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		if status := writer.Status(); status < http.StatusInternalServerError {
			stored := storedResponse{
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: writer.Header().Get("Content-Type"),
				Body:        writer.body.Bytes(),
			}
			if err := store.SetJSON(bg, base, stored, ttl); err != nil {
				log.WithError(err).Warn("Failed to store idempotent response")
			}
		}
		if err := store.Del(bg, lockKey); err != nil {
			log.WithError(err).Warn("Failed to release idempotency lock")
		}
	}
}

// idempotencyKey scopes key to the user, else the guest session from the
// header, query or body, else the client IP
func idempotencyKey(c *gin.Context, key, bodySession string) string {
	scope := "ip:" + c.ClientIP()
	if userID, ok := GetUserIDFromContext(c); ok {
		scope = fmt.Sprintf("user:%d", userID)
	} else if sessionID := firstNonEmpty(c.GetHeader("X-Session-ID"), c.Query("session_id"), bodySession); sessionID != "" {
		scope = "session:" + sessionID
	}

	sum := sha256.Sum256([]byte(c.Request.Method + " " + c.FullPath() + " " + key))
	return fmt.Sprintf("idempotency:%s:%s", scope, hex.EncodeToString(sum[:16]))
}

func bodyFingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// bodySessionID reads session_id from a JSON body, if there is one
func bodySessionID(body []byte) string {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.SessionID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
