package main

import (
	"backend-gold/advisor"
	"backend-gold/config"
	"backend-gold/database"
	"backend-gold/handlers"
	"backend-gold/ledger"
	"backend-gold/metrics"
	"backend-gold/middleware"
	"backend-gold/pricing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func setupRouter(cfg config.Config, db *gorm.DB, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware())

	h := handlers.NewHandler(
		ledger.NewStore(db),
		pricing.NewOracle(cfg.PricePerGram),
		advisor.NewClassifier(cfg.GoldKeywords, cfg.BuyIntentKeywords),
		handlers.Options{RequireExistingUser: cfg.RequireExistingUser},
	)
	h.Register(r)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Error loading config")
	}

	log := middleware.NewLogger(cfg.LogLevel)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Error connecting database")
	}

	r := setupRouter(cfg, db, log)

	log.WithFields(logrus.Fields{
		"port":           cfg.Port,
		"price_per_gram": cfg.PricePerGram,
		"dialect":        db.Dialector.Name(),
	}).Info("gold advisor listening")

	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
