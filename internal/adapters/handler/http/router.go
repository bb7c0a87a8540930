package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewHandler wires the full HTTP surface. Everything under /api requires an
// authenticated principal; /auth is the only unauthenticated area.
func NewHandler(
	pollHandler *PollHandler,
	voteHandler *VoteHandler,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	jwtSecret []byte,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(allowedOrigins))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Route("/polls", func(r chi.Router) {
			r.Post("/", pollHandler.CreatePoll)
			r.Get("/", pollHandler.ListPolls)
			r.Get("/my-polls", pollHandler.MyPolls)
			r.Get("/active", pollHandler.ActivePolls)
			r.Get("/expired", pollHandler.ExpiredPolls)
			r.Get("/stats", pollHandler.Stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", pollHandler.GetPoll)
				r.Patch("/", pollHandler.UpdatePoll)
				r.Delete("/", pollHandler.DeletePoll)

				r.Get("/can-vote", pollHandler.CanVote)
				r.Get("/has-voted", voteHandler.HasVoted)
				r.Get("/my-vote", voteHandler.MyVote)
				r.Get("/results", voteHandler.Results)

				r.Post("/votes", voteHandler.CastVote)
				r.Delete("/votes", voteHandler.DeleteVote)

				r.Post("/allowed-users", pollHandler.AddAllowedUser)
				r.Delete("/allowed-users", pollHandler.RemoveAllowedUser)
			})
		})

		r.Get("/votes/mine", voteHandler.MyVotes)
		r.Get("/users/me", userHandler.GetMe)
	})

	return r
}
