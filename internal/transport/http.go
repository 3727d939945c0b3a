package transport

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the dashboard API router. Everything under /api requires
// an authenticated principal; auth and health endpoints do not.
func NewRouter(h *Handlers, authMiddleware mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", handleHealth).Methods("GET")
	r.HandleFunc("/auth/signin", h.SignIn).Methods("POST")
	r.HandleFunc("/auth/redeem", h.Redeem).Methods("POST")
	r.HandleFunc("/auth/signout", h.SignOut).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}
	api.HandleFunc("/lessons", h.List).Methods("GET")
	api.HandleFunc("/lessons", h.Create).Methods("POST")
	api.HandleFunc("/lessons/tags", h.Tags).Methods("GET")
	api.HandleFunc("/lessons/stats", h.Stats).Methods("GET")
	api.HandleFunc("/lessons/export", h.Export).Methods("GET")
	api.HandleFunc("/lessons/import", h.Import).Methods("POST")
	api.HandleFunc("/lessons/{id}", h.Get).Methods("GET")
	api.HandleFunc("/lessons/{id}", h.Edit).Methods("PATCH")
	api.HandleFunc("/lessons/{id}", h.Delete).Methods("DELETE")
	api.HandleFunc("/lessons/{id}/review", h.Review).Methods("POST")

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
