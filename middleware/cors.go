package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// devStorefrontOrigin is the local storefront dev server, allowed when no origin is configured.
const devStorefrontOrigin = "http://localhost:5173"

// storefrontOrigins splits a comma separated ORIGIN_URL value.
func storefrontOrigins(originURL string) []string {
	var origins []string
	seen := map[string]bool{}
	for _, o := range strings.Split(originURL, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = []string{devStorefrontOrigin}
	}
	return origins
}

// CORSMiddleware lets the storefront call the API with credentials so the
// session cookie and X-Session-ID header survive cross-origin requests.
func CORSMiddleware(originURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     storefrontOrigins(originURL),
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", SessionIDHeader},
		ExposeHeaders:    []string{"Content-Length", SessionIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
