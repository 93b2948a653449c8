package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Allow cross-origin requests with credentials from the single origin
func CORSMiddleware(origin string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return c.Handler
}
