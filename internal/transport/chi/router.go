package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// RouterOptions tunes the HTTP router.
type RouterOptions struct {
	// TokenRequestsPerMinute limits POST /auth/token per client IP. 0 disables the limit.
	TokenRequestsPerMinute int
}

// NewRouter wires middleware and every API route.
func NewRouter(s *Server, authn Authenticator, logger *zap.Logger, opts RouterOptions) http.Handler {
	r := gochi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.StripSlashes)
	r.Use(WideEvent(logger))
	r.Use(AuthMiddleware(authn))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/auth/token", func(r gochi.Router) {
		if opts.TokenRequestsPerMinute > 0 {
			r.With(TokenRateLimit(opts.TokenRequestsPerMinute)).Post("/", s.CreateToken)
		} else {
			r.Post("/", s.CreateToken)
		}
		r.Get("/", s.RefreshToken)
	})

	r.Get("/fields", s.GetMergedFields)

	r.Route("/index", func(r gochi.Router) {
		r.Get("/", s.ListIndices)
		r.Post("/", s.CreateIndex)
		r.Route("/{ix}", func(r gochi.Router) {
			r.Get("/", s.GetIndex)
			r.Put("/", s.UpdateIndex)
			r.Delete("/", s.DeleteIndex)

			r.Post("/documents", s.UploadDocuments)
			r.Get("/documents/{id}", s.GetDocument)
			r.Put("/documents/{id}", s.UpdateDocument)
			r.Delete("/documents/{id}", s.DeleteDocument)

			r.Post("/query", s.QueryDocuments)
			r.Post("/tags_update", s.UpdateTags)

			r.Get("/fields", s.GetFields)
			r.Post("/fields", s.SetFields)
			r.Get("/fields/{field}/values", s.GetFieldValues)

			r.Get("/refresh", s.RefreshIndex)

			r.Get("/users", s.ListIndexUsers)
			r.Post("/users", s.AddIndexUser)
			r.Put("/users/{email}", s.SetIndexUserRole)
			r.Delete("/users/{email}", s.RemoveIndexUser)
		})
	})

	r.Route("/users", func(r gochi.Router) {
		r.Get("/", s.ListUsers)
		r.Post("/", s.CreateUser)
		r.Get("/{email}", s.GetUser)
		r.Put("/{email}", s.ModifyUser)
		r.Delete("/{email}", s.DeleteUser)
	})

	return r
}
