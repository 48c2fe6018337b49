package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS builds the cross-origin middleware from the configured comma-separated
// origin list. The API is bearer-token based so credentials are never shared
// cross-origin.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Trace-ID"},
	})
	return c.Handler
}
