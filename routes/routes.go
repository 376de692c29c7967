package routes

import (
	"storefront/controllers"
	"storefront/middleware"
	"storefront/utils"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, issuer *utils.TokenIssuer, userController *controllers.UserController, productController *controllers.ProductController, cartController *controllers.CartController, orderController *controllers.OrderController) {
	api := router.PathPrefix("/api").Subrouter()
	requireUser := middleware.AuthMiddleware(issuer)

	// User routes
	api.HandleFunc("/user/register", userController.Register).Methods("POST")
	api.HandleFunc("/user/verify", userController.VerifyEmail).Methods("GET")
	api.HandleFunc("/user/login", userController.Login).Methods("POST")

	profile := api.PathPrefix("/user").Subrouter()
	profile.Use(requireUser)
	profile.HandleFunc("/profile", userController.GetProfile).Methods("GET")

	// Product routes; fixed paths go before {id}
	api.HandleFunc("/product/list", productController.GetProducts).Methods("GET")
	api.HandleFunc("/product/bestsellers", productController.BestSellers).Methods("GET")
	api.HandleFunc("/product/{id}", productController.GetProductByID).Methods("GET")

	catalogAdmin := api.PathPrefix("/product").Subrouter()
	catalogAdmin.Use(requireUser, middleware.AdminMiddleware)
	catalogAdmin.HandleFunc("", productController.CreateProduct).Methods("POST")
	catalogAdmin.HandleFunc("/{id}", productController.UpdateProduct).Methods("PUT")
	catalogAdmin.HandleFunc("/{id}", productController.DeleteProduct).Methods("DELETE")

	// Cart routes
	cart := api.PathPrefix("/cart").Subrouter()
	cart.Use(requireUser)
	cart.HandleFunc("", cartController.GetCart).Methods("GET")
	cart.HandleFunc("", cartController.AddToCart).Methods("POST")
	cart.HandleFunc("/{product_id}", cartController.RemoveFromCart).Methods("DELETE")

	// Order routes
	orders := api.PathPrefix("/order").Subrouter()
	orders.Use(requireUser)
	orders.HandleFunc("/place", orderController.PlaceOrder).Methods("POST")
	orders.HandleFunc("/checkout", orderController.PlaceOrderGateway).Methods("POST")
	orders.HandleFunc("/verify", orderController.VerifyPayment).Methods("POST")
	orders.HandleFunc("/mine", orderController.UserOrders).Methods("GET")
	orders.HandleFunc("/{id}/checkout", orderController.RetryCheckout).Methods("POST")

	orderAdmin := api.PathPrefix("/order").Subrouter()
	orderAdmin.Use(requireUser, middleware.AdminMiddleware)
	orderAdmin.HandleFunc("/list", orderController.AllOrders).Methods("GET")
	orderAdmin.HandleFunc("/status", orderController.UpdateStatus).Methods("POST")
}
