package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/lingxijiao/backend/internal/i18n"
)

// LocaleMiddleware negotiates the response language from Accept-Language and
// stores the localizer in the request context.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := i18n.Negotiate(c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(i18n.WithLocalizer(c.Request.Context(), loc))
		c.Header("Content-Language", loc.Language())
		c.Next()
	}
}
