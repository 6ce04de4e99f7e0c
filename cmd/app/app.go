package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/google/uuid"
	"github.com/wichananm65/shop-backend/internal/address"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/cart"
	"github.com/wichananm65/shop-backend/internal/category"
	"github.com/wichananm65/shop-backend/internal/config"
	"github.com/wichananm65/shop-backend/internal/logger"
	"github.com/wichananm65/shop-backend/internal/metrics"
	"github.com/wichananm65/shop-backend/internal/order"
	"github.com/wichananm65/shop-backend/internal/product"
	"github.com/wichananm65/shop-backend/internal/storage"
	"github.com/wichananm65/shop-backend/internal/user"
	"go.uber.org/zap"
)

const uploadsPrefix = "/uploads"

// newImageStore keeps product images in S3 when a bucket is configured and
// under cfg.UploadDir otherwise.
func newImageStore(ctx context.Context, cfg config.Config) (product.ImageStore, error) {
	if cfg.S3Bucket == "" {
		return storage.NewDisk(cfg.UploadDir, uploadsPrefix), nil
	}
	return storage.NewS3(ctx, storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
}

// bootstrapAdmin makes cfg.AdminEmail an admin. It does nothing when no
// admin email is configured.
func bootstrapAdmin(ctx context.Context, cfg config.Config, users *user.Service, log *zap.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	u, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	log.Info("admin account ready", zap.Int("user_id", u.ID), zap.String("email", u.Email))
	return nil
}

// newApp wires repositories, services and handlers onto a fiber app.
// Public routes are registered before the JWT middleware, protected ones
// after it.
func newApp(cfg config.Config, db *sql.DB, log *zap.Logger, m *metrics.Metrics, images product.ImageStore) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "shop-backend",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(logger.Middleware(log))
	app.Use(m.Middleware())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Warn("health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", m.Handler())
	if cfg.S3Bucket == "" {
		app.Static(uploadsPrefix, cfg.UploadDir)
	}

	policy := user.DefaultPolicy

	userService := user.NewService(user.NewPostgresRepository(db))
	userHandler := user.NewHandler(userService, policy, cfg.JWTSecret, cfg.JWTTTL)

	addressService := address.NewService(address.NewPostgresRepository(db))
	addressHandler := address.NewHandler(addressService)

	categoryHandler := category.NewHandler(category.NewService(category.NewPostgresRepository(db)), policy)

	productService := product.NewService(product.NewPostgresRepository(db)).WithImages(images)
	productHandler := product.NewHandler(productService, policy)

	cartHandler := cart.NewHandler(cart.NewService(cart.NewPostgresRepository(db), productService))

	orderService := order.NewService(order.NewPostgresStore(db), order.Options{
		StockPolicy: order.StockPolicy(cfg.StockPolicy),
		Currency:    cfg.Currency,
		Addresses:   addressService,
		Metrics:     m,
		Logger:      log,
	})
	orderHandler := order.NewHandler(orderService, policy)

	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperr.Respond(c, apperr.Unauthorized("missing or invalid token"))
		},
	}))
	app.Use(user.CurrentRole(userService))

	userHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	categoryHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	return app
}

// errorHandler renders errors that escape handlers, such as unmatched
// routes, in the same body shape as apperr.Respond.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := apperr.KindInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			kind = apperr.KindNotFound
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			kind = apperr.KindValidation
		case fiber.StatusMethodNotAllowed:
			kind = apperr.KindNotFound
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": kind, "message": fe.Message})
	}
	return apperr.Respond(c, err)
}
