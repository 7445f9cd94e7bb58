// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tokosakti/toko-backend/internal/i18n"
)

// I18nMiddleware resolves the response language from Accept-Language.
// Only the primary tag is considered; quality values in headers like
// "id-ID,id;q=0.9,en;q=0.8" are ignored. Indonesian is the default.
func I18nMiddleware() gin.HandlerFunc {
	supported := i18n.GetSupportedLanguages()

	return func(c *gin.Context) {
		lang := "id"

		if header := c.GetHeader("Accept-Language"); header != "" {
			first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			primary := strings.Split(strings.ReplaceAll(first, "_", "-"), "-")[0]
			if primary == "in" {
				// legacy Indonesian tag
				primary = "id"
			}
			for _, s := range supported {
				if primary == s {
					lang = primary
					break
				}
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}
