package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/socialfeed/internal/handlers/render"
)

const pingTimeout = 2 * time.Second

// Always 200: server answers even if database is gone
func handleHealth(db pinger) http.Handler {
	type response struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Database string `json:"database"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		res := response{Status: "OK", Message: "Server is running", Database: "Connected"}
		if err := db.Ping(ctx); err != nil {
			res.Database = "Disconnected"
		}

		render.JSON(w, res)
	})
}

func handleNotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.ServiceError(w, "Route not found", http.StatusNotFound)
	})
}
