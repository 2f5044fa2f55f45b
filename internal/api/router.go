package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/simplecomm-be/internal/ai"
	"github.com/isdelr/simplecomm-be/internal/api/handlers"
	"github.com/isdelr/simplecomm-be/internal/auth"
	"github.com/isdelr/simplecomm-be/internal/metrics"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/isdelr/simplecomm-be/internal/services"
	"github.com/isdelr/simplecomm-be/internal/websocket"
)

// Dependencies bundles everything the router wires into handlers.
type Dependencies struct {
	Hub            *websocket.Hub
	Broker         *realtime.Broker
	Tokens         *auth.TokenIssuer
	AllowedOrigins []string
	SecureCookies  bool

	Users       services.UserServiceProvider
	Communities services.CommunityServiceProvider
	Membership  services.MembershipServiceProvider
	Messages    services.MessageServiceProvider
	Events      services.EventServiceProvider
	Expenses    services.ExpenseServiceProvider
	FAQs        services.FAQServiceProvider
	Map         services.MapServiceProvider
	Dashboard   services.DashboardServiceProvider
	AI          ai.Answerer
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Users, deps.Tokens, deps.SecureCookies)
	communityHandler := handlers.NewCommunityHandler(deps.Communities, deps.Membership)
	messageHandler := handlers.NewMessageHandler(deps.Messages)
	eventHandler := handlers.NewEventHandler(deps.Events)
	expenseHandler := handlers.NewExpenseHandler(deps.Expenses)
	faqHandler := handlers.NewFAQHandler(deps.FAQs)
	mapHandler := handlers.NewMapHandler(deps.Map)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard)
	aiHandler := handlers.NewAIHandler(deps.AI)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Broker, deps.AllowedOrigins)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Post("/api/ask-ai", aiHandler.Ask)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/logout", userHandler.Logout)
		})

		r.Get("/categories", communityHandler.Categories)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Tokens.JWTMiddleware())

			// WebSocket connection endpoint
			r.Get("/ws", wsHandler.Serve)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Put("/", userHandler.UpdateMe)
				r.Put("/password", userHandler.ChangePassword)
				r.Post("/groups", userHandler.CreateGroup)
				r.Get("/recommendations", communityHandler.Recommendations)
			})

			r.Route("/communities", func(r chi.Router) {
				r.Get("/", communityHandler.GetAll)
				r.Post("/", communityHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", communityHandler.Get)
					r.Post("/join", communityHandler.Join)
					r.Get("/messages", messageHandler.GetAll)
					r.Post("/messages", messageHandler.Create)
					r.Get("/events", eventHandler.GetAll)
					r.Post("/events", eventHandler.Create)
					r.Get("/expenses", expenseHandler.GetAll)
					r.Post("/expenses", expenseHandler.Create)
					r.Get("/finance", expenseHandler.Finance)
					r.Get("/faqs", faqHandler.GetAll)
					r.Post("/faqs", faqHandler.Ask)
				})
			})

			r.Put("/faqs/{faqId}/answer", faqHandler.Answer)
			r.Get("/map", mapHandler.Get)
			r.Get("/dashboard/stats", dashboardHandler.Get)
		})
	})

	return r
}
