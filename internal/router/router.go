package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api/auth"
	"github.com/gritfit/gritfit-api/internal/api/blog"
	"github.com/gritfit/gritfit-api/internal/api/booking"
	"github.com/gritfit/gritfit-api/internal/api/fitplan"
	"github.com/gritfit/gritfit-api/internal/api/membership"
	"github.com/gritfit/gritfit-api/internal/api/payments"
	"github.com/gritfit/gritfit-api/internal/api/recipes"
	"github.com/gritfit/gritfit-api/internal/api/review"
	"github.com/gritfit/gritfit-api/internal/api/shop"
	"github.com/gritfit/gritfit-api/internal/api/trainer"
	"github.com/gritfit/gritfit-api/internal/api/user"
	"github.com/gritfit/gritfit-api/internal/types"
)

// Config carries the handlers and middleware the router wires together.
// Server-wide middleware (request ID, logger, recoverer) is applied in
// main.go before this router is mounted.
type Config struct {
	Logger *slog.Logger

	AuthHandler       *auth.HandlerImpl
	UserHandler       *user.HandlerImpl
	MembershipHandler *membership.HandlerImpl
	TrainerHandler    *trainer.HandlerImpl
	BookingHandler    *booking.HandlerImpl
	ReviewHandler     *review.HandlerImpl
	ShopHandler       *shop.HandlerImpl
	RecipesHandler    *recipes.HandlerImpl
	BlogHandler       *blog.HandlerImpl
	FitplanHandler    *fitplan.HandlerImpl
	PaymentsHandler   *payments.HandlerImpl

	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter builds the full route tree: public reads and webhooks,
// authenticated member routes, and the trainer and admin groups.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	// Webhooks verify their own signatures; rate limited per source IP.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(100, time.Minute))
		r.Post("/clerk-webhook", cfg.UserHandler.ClerkWebhook)
		r.Post("/stripe-webhook", cfg.PaymentsHandler.StripeWebhook)
	})

	// Plan generation keeps its historical path; clients depend on it.
	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)
		r.Post("/vapi/generate-program", cfg.FitplanHandler.GenerateProgram)
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)

			r.Get("/memberships/plans", cfg.MembershipHandler.ListPlans)

			r.Get("/trainers", cfg.TrainerHandler.ListTrainers)
			r.Get("/trainers/{trainerID}", cfg.TrainerHandler.GetTrainer)
			r.Get("/trainers/{trainerID}/slots", cfg.TrainerHandler.GetTrainerSlots)
			r.Get("/trainers/{trainerID}/reviews", cfg.ReviewHandler.ListTrainerReviews)

			r.Get("/marketplace/items", cfg.ShopHandler.ListItems)
			r.Get("/marketplace/items/{itemID}", cfg.ShopHandler.GetItem)

			r.Get("/recipes", cfg.RecipesHandler.ListRecipes)
			r.Get("/recipes/{recipeID}", cfg.RecipesHandler.GetRecipe)

			r.Get("/blog/posts", cfg.BlogHandler.ListPosts)
			r.Get("/blog/posts/{postID}", cfg.BlogHandler.GetPost)
			r.Get("/blog/posts/{postID}/comments", cfg.BlogHandler.ListComments)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/users/me", cfg.UserHandler.GetMe)

			r.Get("/memberships/me", cfg.MembershipHandler.GetMyMembership)
			r.Post("/memberships/me/cancel", cfg.MembershipHandler.CancelMyMembership)

			r.Post("/bookings", cfg.BookingHandler.CreateBooking)
			r.Get("/bookings", cfg.BookingHandler.ListMyBookings)
			r.Get("/bookings/{bookingID}", cfg.BookingHandler.GetBooking)
			r.Post("/bookings/{bookingID}/cancel", cfg.BookingHandler.CancelBooking)

			r.Post("/reviews", cfg.ReviewHandler.CreateReview)

			r.Get("/cart", cfg.ShopHandler.GetCart)
			r.Delete("/cart", cfg.ShopHandler.ClearCart)
			r.Post("/cart/items", cfg.ShopHandler.AddToCart)
			r.Put("/cart/items/{itemID}", cfg.ShopHandler.UpdateCartQuantity)
			r.Delete("/cart/items/{itemID}", cfg.ShopHandler.RemoveFromCart)
			r.Get("/orders", cfg.ShopHandler.ListMyOrders)

			r.Post("/payments/checkout/membership", cfg.PaymentsHandler.CreateMembershipCheckout)
			r.Post("/payments/checkout/booking", cfg.PaymentsHandler.CreateBookingCheckout)
			r.Post("/payments/checkout/cart", cfg.PaymentsHandler.CreateCartCheckout)

			r.Get("/plans/active", cfg.FitplanHandler.GetActivePlan)
			r.Get("/plans", cfg.FitplanHandler.ListMyPlans)

			r.Post("/blog/posts/{postID}/like", cfg.BlogHandler.ToggleLike)
			r.Post("/blog/posts/{postID}/comments", cfg.BlogHandler.AddComment)
			r.Delete("/blog/comments/{commentID}", cfg.BlogHandler.DeleteComment)

			// Author-or-admin, enforced in the service.
			r.Put("/blog/posts/{postID}", cfg.BlogHandler.UpdatePost)
			r.Delete("/blog/posts/{postID}", cfg.BlogHandler.DeletePost)
		})

		// Trainer self-service
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(appMiddleware.RequireRole(cfg.Logger, types.RoleTrainer, types.RoleAdmin))

			r.Put("/trainers/me", cfg.TrainerHandler.UpdateMyProfile)
			r.Get("/trainers/me/availability", cfg.TrainerHandler.GetMyAvailability)
			r.Put("/trainers/me/availability", cfg.TrainerHandler.SetMyAvailability)
			r.Post("/trainers/me/overrides", cfg.TrainerHandler.AddMyOverride)
			r.Delete("/trainers/me/overrides/{overrideID}", cfg.TrainerHandler.RemoveMyOverride)
			r.Get("/trainers/me/bookings", cfg.BookingHandler.ListTrainerBookings)

			r.Post("/recipes", cfg.RecipesHandler.CreateRecipe)
			r.Put("/recipes/{recipeID}", cfg.RecipesHandler.UpdateRecipe)
			r.Delete("/recipes/{recipeID}", cfg.RecipesHandler.DeleteRecipe)

			r.Post("/blog/posts", cfg.BlogHandler.CreatePost)
		})

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(appMiddleware.RequireRole(cfg.Logger, types.RoleAdmin))

			r.Get("/users", cfg.UserHandler.ListUsers)
			r.Put("/users/{userID}/role", cfg.UserHandler.UpdateUserRole)

			r.Post("/marketplace/items", cfg.ShopHandler.CreateItem)
			r.Put("/marketplace/items/{itemID}", cfg.ShopHandler.UpdateItem)
			r.Delete("/marketplace/items/{itemID}", cfg.ShopHandler.DeleteItem)

			r.Get("/admin/webhooks/dead-letters", cfg.PaymentsHandler.ListDeadLetters)
		})
	})

	return r
}
