package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"carpool/internal/model"
	"carpool/internal/store"
)

const (
	ctxUserID   = "user_id"
	ctxUserName = "user_name"
	ctxIsAdmin  = "is_admin"

	// renewWindow is how close to expiry a token gets a replacement in the
	// X-New-Token header.
	renewWindow = 24 * time.Hour
)

// UserLookup returns the stored account behind a token.
type UserLookup interface {
	Me(ctx context.Context, username string) (*model.User, error)
}

type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	users  UserLookup
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithUsers makes Auth take the admin flag from the stored account instead of
// the token, so demotions and deletions apply to tokens already issued.
func (j *JWT) WithUsers(users UserLookup) *JWT {
	j.users = users
	return j
}

func (j *JWT) Issue(u *model.User) (string, error) {
	return j.sign(u.ID, u.Username, u.IsAdmin)
}

func (j *JWT) sign(uid int, name string, admin bool) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   uid,
		"name":  name,
		"admin": admin,
		"exp":   j.now().Add(j.ttl).Unix(),
	}).SignedString(j.secret)
}

func (j *JWT) parse(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

// Auth requires a Bearer token and puts the caller into the gin context.
func (j *JWT) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := j.parse(auth[len("Bearer "):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		uid, _ := claims["uid"].(float64)
		name, _ := claims["name"].(string)
		admin, _ := claims["admin"].(bool)
		if name == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if j.users != nil {
			u, err := j.users.Me(c.Request.Context(), name)
			switch {
			case errors.Is(err, store.ErrUserNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			case err != nil:
				slog.Error("auth.lookup_failed", "username", name, "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			uid, admin = float64(u.ID), u.IsAdmin
		}
		c.Set(ctxUserID, int(uid))
		c.Set(ctxUserName, name)
		c.Set(ctxIsAdmin, admin)

		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			if exp.Sub(j.now()) < renewWindow {
				if renewed, err := j.sign(int(uid), name, admin); err == nil {
					c.Header("X-New-Token", renewed)
				}
			}
		}

		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func UserName(c *gin.Context) string { return c.GetString(ctxUserName) }

func IsAdmin(c *gin.Context) bool { return c.GetBool(ctxIsAdmin) }
