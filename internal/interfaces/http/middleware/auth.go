// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/pkg/auth"
)

// Guest session transport
const (
	GuestCookieName = "guest_session"
	GuestHeaderName = "X-Guest-Session"
)

const (
	ctxUserID       = "user_id"
	ctxIsAdmin      = "is_admin"
	ctxOwner        = "owner"
	ctxGuestSession = "guest_session_id"
)

// TokenValidator validates bearer access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// IdentityOptions configures guest session handling
type IdentityOptions struct {
	GuestTTL     time.Duration
	SecureCookie bool
}

// Identity resolves who is calling. A valid bearer token yields the user;
// otherwise the caller is a guest, identified by the guest session cookie
// or header, and a new session is issued when neither is present. An
// invalid token is treated like no token.
func Identity(tokens TokenValidator, opts IdentityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := guestSessionFromRequest(c)
		if guestID != "" {
			c.Set(ctxGuestSession, guestID)
		}

		if token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization")); token != "" {
			if claims, err := tokens.ValidateAccessToken(token); err == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxIsAdmin, claims.IsAdmin)
				c.Set(ctxOwner, identity.UserOwner(claims.UserID))
				c.Next()
				return
			}
		}

		if guestID == "" {
			guestID = identity.GuestPrefix + uuid.NewString()
			c.Set(ctxGuestSession, guestID)
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(GuestCookieName, guestID, int(opts.GuestTTL.Seconds()), "/", "", opts.SecureCookie, true)
			c.Header(GuestHeaderName, guestID)
		}
		c.Set(ctxOwner, identity.GuestOwner(guestID))

		c.Next()
	}
}

func guestSessionFromRequest(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(GuestHeaderName)); validGuestID(id) {
		return id
	}
	if id, err := c.Cookie(GuestCookieName); err == nil && validGuestID(id) {
		return id
	}
	return ""
}

func validGuestID(id string) bool {
	return len(id) > len(identity.GuestPrefix) && len(id) <= 100 && strings.HasPrefix(id, identity.GuestPrefix)
}

// RequireAuth rejects callers without a valid access token
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserIDFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "authentication_required",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin ensures the user is an admin
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserIDFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "authentication_required",
			})
			return
		}
		if !IsAdminFromContext(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
				"code":  "admin_required",
			})
			return
		}
		c.Next()
	}
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok && id != 0
}

// IsAdminFromContext checks if user is admin from gin context
func IsAdminFromContext(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}

// GetOwnerFromContext returns the resolved caller identity
func GetOwnerFromContext(c *gin.Context) (identity.Owner, bool) {
	v, exists := c.Get(ctxOwner)
	if !exists {
		return identity.Owner{}, false
	}
	owner, ok := v.(identity.Owner)
	return owner, ok && !owner.IsZero()
}

// GetGuestSessionFromContext returns the guest session presented or issued
// on this request, also for authenticated users about to merge
func GetGuestSessionFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(ctxGuestSession)
	return id, id != ""
}
