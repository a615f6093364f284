package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/handler"
	"github.com/dukerupert/berrybridge/internal/middleware"
	"github.com/dukerupert/berrybridge/internal/model"
	ws "github.com/dukerupert/berrybridge/internal/websocket"
)

type Server struct {
	hub         *ws.Hub
	authH       *handler.AuthHandler
	eventH      *handler.EventHandler
	rewardH     *handler.RewardHandler
	activityH   *handler.ActivityHandler
	adminH      *handler.AdminHandler
	auth        *middleware.Authenticator
	refresher   *feed.Refresher
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the HTTP surface. refresher may be nil when no service account
// is configured.
func New(svc *feed.Service, client *backend.Client, negotiator *backend.Negotiator, routes handler.RouteHistory, hub *ws.Hub, refresher *feed.Refresher, auth *middleware.Authenticator, logger *slog.Logger) *Server {
	return &Server{
		hub:         hub,
		authH:       handler.NewAuthHandler(client, auth, logger),
		eventH:      handler.NewEventHandler(svc, logger),
		rewardH:     handler.NewRewardHandler(svc, logger),
		activityH:   handler.NewActivityHandler(svc, logger),
		adminH:      handler.NewAdminHandler(svc, negotiator, routes, logger),
		auth:        auth,
		refresher:   refresher,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/refresh", s.rateLimitedHandler(s.authH.Refresh))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	outerMux.Handle("/", middleware.RequireAuth(s.auth)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

type healthResponse struct {
	Status         string                `json:"status"`
	VerifiesTokens bool                  `json:"verifies_tokens"`
	LiveClients    int                   `json:"live_clients"`
	Refresher      *feed.RefresherStatus `json:"refresher,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:         "ok",
		VerifiesTokens: s.auth.Verifies(),
		LiveClients:    s.hub.ClientCount(),
	}
	if s.refresher != nil {
		st := s.refresher.Status()
		resp.Refresher = &st
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

var (
	staffOnly = middleware.RequireRole(model.RoleFaculty, model.RoleAdmin)
	adminOnly = middleware.RequireAdmin
)

func gated(gate func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
	return gate(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Events
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.Handle("POST /api/events", gated(staffOnly, s.eventH.Create))
	mux.Handle("PUT /api/events/{id}", gated(staffOnly, s.eventH.Update))
	mux.Handle("DELETE /api/events/{id}", gated(staffOnly, s.eventH.Delete))
	mux.HandleFunc("POST /api/events/{id}/register", s.eventH.Register)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("GET /api/rewards/claimed", s.rewardH.Claimed)
	mux.Handle("POST /api/rewards", gated(adminOnly, s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}", gated(adminOnly, s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", gated(adminOnly, s.rewardH.Delete))
	mux.HandleFunc("POST /api/rewards/{id}/claim", s.rewardH.Claim)

	// Points and berries
	mux.HandleFunc("GET /api/points", s.activityH.Points)
	mux.HandleFunc("GET /api/points/history", s.activityH.PointsHistory)
	mux.HandleFunc("GET /api/berries/quote", s.activityH.Quote)

	// Achievements
	mux.HandleFunc("GET /api/achievements", s.activityH.Achievements)
	mux.Handle("GET /api/achievements/pending", gated(staffOnly, s.activityH.PendingAchievements))
	mux.HandleFunc("POST /api/achievements", s.activityH.SubmitAchievement)
	mux.Handle("POST /api/achievements/{id}/review", gated(staffOnly, s.activityH.ReviewAchievement))

	// Notifications and badges
	mux.HandleFunc("GET /api/notifications", s.activityH.Notifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.activityH.MarkNotificationRead)
	mux.HandleFunc("POST /api/notifications/read-all", s.activityH.MarkAllNotificationsRead)
	mux.HandleFunc("GET /api/badges", s.activityH.Badges)
	mux.HandleFunc("GET /api/badges/mine", s.activityH.MyBadges)

	// Administration
	mux.Handle("GET /api/users", gated(adminOnly, s.adminH.Users))
	mux.Handle("GET /api/capabilities", gated(adminOnly, s.adminH.Capabilities))
	mux.Handle("DELETE /api/capabilities/{name}", gated(adminOnly, s.adminH.ForgetCapability))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
