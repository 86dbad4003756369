package api

import "net/http"

// Server 集中持有所有handler，供router註冊路由
type Server struct {
	CartHandler    ICartHandler
	OrderHandler   IOrderHandler
	PaymentHandler IPaymentHandler
	AdminHandler   IAdminHandler
}

type ICartHandler interface {
	GetCart(w http.ResponseWriter, r *http.Request)
	AddItem(w http.ResponseWriter, r *http.Request)
	UpdateItem(w http.ResponseWriter, r *http.Request)
	RemoveItem(w http.ResponseWriter, r *http.Request)
	ClearCart(w http.ResponseWriter, r *http.Request)
	ApplyCoupon(w http.ResponseWriter, r *http.Request)
	RemoveCoupon(w http.ResponseWriter, r *http.Request)
	Preview(w http.ResponseWriter, r *http.Request)
}

type IOrderHandler interface {
	CreateOrder(w http.ResponseWriter, r *http.Request)
	GetOrder(w http.ResponseWriter, r *http.Request)
	GetUserOrders(w http.ResponseWriter, r *http.Request)
	ListOrders(w http.ResponseWriter, r *http.Request)
	UpdateStatus(w http.ResponseWriter, r *http.Request)
	CancelOrder(w http.ResponseWriter, r *http.Request)
	ReturnOrder(w http.ResponseWriter, r *http.Request)
}

type IPaymentHandler interface {
	Initiate(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
}

type IAdminHandler interface {
	CreateCoupon(w http.ResponseWriter, r *http.Request)
	ListCoupons(w http.ResponseWriter, r *http.Request)
	DeactivateCoupon(w http.ResponseWriter, r *http.Request)
	CreateCampaign(w http.ResponseWriter, r *http.Request)
	GetCampaign(w http.ResponseWriter, r *http.Request)
	ListCampaignsByStatus(w http.ResponseWriter, r *http.Request)
	TransitionCampaign(w http.ResponseWriter, r *http.Request)
	CheckCampaignEligibility(w http.ResponseWriter, r *http.Request)
	GetStock(w http.ResponseWriter, r *http.Request)
	InitStock(w http.ResponseWriter, r *http.Request)
	Restock(w http.ResponseWriter, r *http.Request)
}

func NewServer(cart ICartHandler, order IOrderHandler, payment IPaymentHandler, admin IAdminHandler) *Server {
	return &Server{
		CartHandler:    cart,
		OrderHandler:   order,
		PaymentHandler: payment,
		AdminHandler:   admin,
	}
}
