package handlers

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/swarupplay/backend/internal/metrics"
	"github.com/swarupplay/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Tokens      TokenIssuer
	Videos      VideoStore
	Search      VideoSearcher
	Stream      StreamProxy
	DB          Pinger
	AuthLimiter middleware.RateLimiter

	PublicBaseURL  string
	StorageBaseURL string
	AllowedOrigins []string
	StaticDir      string
}

// NewRouter wires every route. Everything under /api except login and
// register requires a bearer token.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{DB: deps.DB}
	accounts := AuthHandler{Users: deps.Users, Tokens: deps.Tokens}
	videos := VideoHandler{Videos: deps.Videos, PublicBaseURL: deps.PublicBaseURL, StorageBaseURL: deps.StorageBaseURL}
	search := SearchHandler{Search: deps.Search}
	stream := StreamHandler{Proxy: deps.Stream}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	public := api.NewRoute().Subrouter()
	public.Use(middleware.RateLimit(deps.AuthLimiter, "auth"))
	public.HandleFunc("/auth/login", accounts.Login).Methods(http.MethodPost)
	public.HandleFunc("/auth/register", accounts.Register).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth(deps.Tokens))
	protected.HandleFunc("/auth/me", accounts.Me).Methods(http.MethodGet)
	protected.HandleFunc("/video/{fileId}", videos.Metadata).Methods(http.MethodGet)
	protected.HandleFunc("/files", videos.List).Methods(http.MethodGet)
	protected.HandleFunc("/search", search.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/stream/{fileId}", stream.Stream).Methods(http.MethodGet)

	if deps.StaticDir != "" {
		r.PathPrefix("/").Handler(SPAHandler{Dir: deps.StaticDir})
	}

	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(deps.AllowedOrigins),
		gorillahandlers.AllowCredentials(),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Range"}),
		gorillahandlers.ExposedHeaders([]string{"Content-Range", "Content-Length", "Accept-Ranges"}),
	)(r)
}
