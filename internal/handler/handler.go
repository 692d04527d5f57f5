package handler

import (
	"database/sql"
	"net/http"
	"user_api/docs"
	"user_api/internal/auth"
	"user_api/internal/cache"
	"user_api/internal/config"
	"user_api/internal/middleware"
	"user_api/internal/observability"
	"user_api/internal/queue"
	"user_api/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupHandler initializes all dependencies and routes
func SetupHandler(db *sql.DB, conn *amqp.Connection, redisClient *redis.Client, cfg *config.Config, metrics *observability.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logrus.StandardLogger()))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.PrometheusMiddleware(metrics))

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	userRepo := user.NewUserRepository(db, metrics)
	userService := user.NewUserService(
		userRepo,
		cache.NewUserCache(redisClient),
		queue.NewPublisher(conn, cfg.RabbitMQ.Queue, metrics),
		tokens,
		metrics,
	)
	userController := user.NewUserController(userService)

	Register(r, Routes(userController, Guards{
		SignedIn:    middleware.AuthMiddleware(tokens, http.StatusPaymentRequired),
		SignInLimit: middleware.RateLimiterMiddleware(redisClient, middleware.SignInRateLimiter(), middleware.ByClientIP),
		UserLimit:   middleware.RateLimiterMiddleware(redisClient, middleware.GenerousRateLimiter(), middleware.ByUserID),
	}))

	r.GET("/health", Health(db, redisClient))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName())))

	return r
}
