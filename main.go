package main

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oms-backend/order-management/config"
	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/router"
	"github.com/oms-backend/order-management/services"
	"github.com/oms-backend/order-management/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	systemUser, err := ensureSystemUser(db)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to ensure system user: %v", err)
	}

	courier := services.NewSteadfastServiceFromEnv()
	storage := services.NewStorageServiceFromEnv()

	// Reconciliation loop: poll the courier for in-flight shipments and
	// fold delivery results back into order status.
	sync := services.NewSteadfastSyncService(db, courier, systemUser.ID)
	if raw := os.Getenv("COURIER_SYNC_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sync.Interval = d
		}
	}
	sync.Start()
	defer sync.Stop()

	r := router.SetupRouter(db, courier, storage)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderImage{},
		&models.OrderHistory{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}

// ensureSystemUser seeds the actor recorded on reconciliation-driven
// status transitions.
func ensureSystemUser(db *gorm.DB) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", "system@order-management.local").First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(config.GetEnv("SYSTEM_USER_PASSWORD", "disabled-login")), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user = models.User{
		Name:     "Courier Sync",
		Email:    "system@order-management.local",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
