package middleware

import (
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/session"

	"github.com/gin-gonic/gin"
)

const CurrentUserKey = "CurrentUser"

// InjectUser resolves the cookie credential into a session the same way a
// live client does and stores it under CurrentUserKey.
func InjectUser(profiles session.ProfileSource, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cred := Credential(c); cred != nil {
			if cred.Anonymous {
				c.Set(CurrentUserKey, session.Guest(cred.UID))
			} else {
				profile, err := profiles.GetUser(c.Request.Context(), cred.UID)
				switch {
				case err != nil:
					logger.WithError(err).Warn("profile lookup failed", "uid", cred.UID)
				case profile != nil:
					c.Set(CurrentUserKey, session.FromProfile(cred, profile))
				}
			}
		}

		c.Next()
	}
}
