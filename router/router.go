package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oms-backend/order-management/controllers"
	"github.com/oms-backend/order-management/middlewares"
	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/services"
)

func SetupRouter(db *gorm.DB, courier *services.SteadfastService, storage *services.StorageService) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// 50 requests per second per IP. Registered before the routes so
	// every handler chain includes it.
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	userCtrl := controllers.NewUserController(db)
	orderCtrl := controllers.NewOrderController(db, courier, storage)
	productCtrl := controllers.NewProductController(db)
	customerCtrl := controllers.NewCustomerController(db)
	dashboardCtrl := controllers.NewDashboardController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter for login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", middlewares.RequireRoles(), userCtrl.GetAllUsers)

	// PRODUCTS
	auth.GET("/products", productCtrl.GetAllProducts)
	auth.GET("/products/:product_id", productCtrl.GetProductByID)
	auth.POST("/products", middlewares.RequireRoles(), productCtrl.CreateProduct)
	auth.PATCH("/products/:product_id", middlewares.RequireRoles(), productCtrl.UpdateProduct)
	auth.PATCH("/products/:product_id/stock", middlewares.RequireRoles(), productCtrl.AdjustStock)
	auth.DELETE("/products/:product_id", middlewares.RequireRoles(), productCtrl.DeleteProduct)

	// CUSTOMERS
	auth.GET("/customers", customerCtrl.GetAllCustomers)
	auth.GET("/customers/:customer_id", customerCtrl.GetCustomerByID)

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders", middlewares.RequireRoles(models.RoleOrderCreator), orderCtrl.CreateOrder)
	auth.POST("/orders/upload", middlewares.RequireRoles(models.RoleOrderCreator), orderCtrl.UploadScreenshot)
	auth.PATCH("/orders/:order_id/status", middlewares.RequireRoles(models.RoleDeliveryHandler), orderCtrl.UpdateStatus)
	auth.POST("/orders/:order_id/cancel", middlewares.RequireRoles(models.RoleDeliveryHandler), orderCtrl.CancelOrder)

	// COURIER HAND-OFF
	auth.POST("/orders/:order_id/send-to-courier", middlewares.RequireRoles(models.RoleDeliveryHandler), orderCtrl.SendToCourier)
	auth.POST("/orders/bulk-send", middlewares.RequireRoles(models.RoleDeliveryHandler), orderCtrl.BulkSendToCourier)
	auth.GET("/courier/balance", middlewares.RequireRoles(models.RoleDeliveryHandler), orderCtrl.GetCourierBalance)

	// DASHBOARD
	auth.GET("/dashboard/stats", middlewares.RequireRoles(), dashboardCtrl.GetStats)

	return r
}
