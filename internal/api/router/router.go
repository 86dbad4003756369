package router

import (
	"github.com/RoyceAzure/lab/storefront/internal/api"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func SetupRouter(server *api.Server, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", server.CartHandler.GetCart)
			r.Delete("/", server.CartHandler.ClearCart)
			r.Post("/items", server.CartHandler.AddItem)
			r.Put("/items/{productID}", server.CartHandler.UpdateItem)
			r.Delete("/items/{productID}", server.CartHandler.RemoveItem)
			r.Post("/coupon", server.CartHandler.ApplyCoupon)
			r.Delete("/coupon", server.CartHandler.RemoveCoupon)
			r.Get("/preview", server.CartHandler.Preview)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", server.OrderHandler.CreateOrder)
			r.Get("/", server.OrderHandler.GetUserOrders)
			r.Get("/{orderID}", server.OrderHandler.GetOrder)
			r.Post("/{orderID}/cancel", server.OrderHandler.CancelOrder)
			r.Post("/{orderID}/return", server.OrderHandler.ReturnOrder)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", server.PaymentHandler.Initiate)
			r.Get("/callback", server.PaymentHandler.Callback)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/orders", server.OrderHandler.ListOrders)
			r.Put("/orders/{orderID}/status", server.OrderHandler.UpdateStatus)

			r.Route("/coupons", func(r chi.Router) {
				r.Post("/", server.AdminHandler.CreateCoupon)
				r.Get("/", server.AdminHandler.ListCoupons)
				r.Delete("/{code}", server.AdminHandler.DeactivateCoupon)
			})

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", server.AdminHandler.CreateCampaign)
				r.Get("/", server.AdminHandler.ListCampaignsByStatus)
				r.Get("/{campaignID}", server.AdminHandler.GetCampaign)
				r.Put("/{campaignID}/status", server.AdminHandler.TransitionCampaign)
				r.Get("/{campaignID}/eligibility/{userID}", server.AdminHandler.CheckCampaignEligibility)
			})

			r.Route("/stock", func(r chi.Router) {
				r.Post("/", server.AdminHandler.InitStock)
				r.Get("/{productID}", server.AdminHandler.GetStock)
				r.Post("/{productID}/restock", server.AdminHandler.Restock)
			})
		})
	})

	return r
}
