package middleware

import (
	"net/http"

	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Cookie session keys.
const (
	KeyUID       = "uid"
	KeyEmail     = "email"
	KeyAnonymous = "anonymous"
)

// SaveCredential stores cred in the cookie session, replacing whatever was there.
func SaveCredential(c *gin.Context, cred *identity.Credential) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(KeyUID, cred.UID)
	sess.Set(KeyEmail, cred.Email)
	sess.Set(KeyAnonymous, cred.Anonymous)
	return sess.Save()
}

func ClearCredential(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	return sess.Save()
}

// Credential reads the credential remembered by the cookie. Named
// credentials are not verified here.
func Credential(c *gin.Context) *identity.Credential {
	sess := sessions.Default(c)
	uid, _ := sess.Get(KeyUID).(string)
	if uid == "" {
		return nil
	}
	email, _ := sess.Get(KeyEmail).(string)
	anonymous, _ := sess.Get(KeyAnonymous).(bool)
	return &identity.Credential{UID: uid, Email: email, Anonymous: anonymous}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Credential(c) == nil {
			if c.IsWebsocket() {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole checks the role of the profile loaded by InjectUser, so a
// demoted user loses access on the next request.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		current := CurrentUser(c)
		if current == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if _, ok := roleSet[current.Role]; !ok {
			c.String(http.StatusForbidden, "access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the session resolved by InjectUser, or nil.
func CurrentUser(c *gin.Context) *session.Session {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
