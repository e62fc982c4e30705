package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/messismo/bar/internal/audit"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	"github.com/messismo/bar/internal/authorization"
	"github.com/messismo/bar/internal/benefit"
	benefitdomain "github.com/messismo/bar/internal/benefit/domain"
	"github.com/messismo/bar/internal/config"
	"github.com/messismo/bar/internal/lock"
	"github.com/messismo/bar/internal/observability"
	obslogger "github.com/messismo/bar/internal/observability/logger"
	obsmetrics "github.com/messismo/bar/internal/observability/metrics"
	obstracing "github.com/messismo/bar/internal/observability/tracing"
	"github.com/messismo/bar/internal/order"
	orderdomain "github.com/messismo/bar/internal/order/domain"
	"github.com/messismo/bar/internal/points"
	pointsdomain "github.com/messismo/bar/internal/points/domain"
	"github.com/messismo/bar/internal/product"
	productdomain "github.com/messismo/bar/internal/product/domain"
	"github.com/messismo/bar/internal/providers/pdf"
	"github.com/messismo/bar/internal/ratelimit"
	"github.com/messismo/bar/internal/settings"
	settingsdomain "github.com/messismo/bar/internal/settings/domain"
	"github.com/messismo/bar/internal/user"
	userdomain "github.com/messismo/bar/internal/user/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	lock.Module,
	ratelimit.Module,
	pdf.Module,
	settings.Module,
	points.Module,
	user.Module,
	benefit.Module,
	product.Module,
	order.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	userSvc      userdomain.Service
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	settingsSvc  settingsdomain.Service
	pointsSvc    pointsdomain.Service
	benefitSvc   benefitdomain.Service
	productSvc   productdomain.Service
	orderSvc     orderdomain.Service
	loginLimiter *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	UserSvc      userdomain.Service
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service
	SettingsSvc  settingsdomain.Service
	PointsSvc    pointsdomain.Service
	BenefitSvc   benefitdomain.Service
	ProductSvc   productdomain.Service
	OrderSvc     orderdomain.Service
	LoginLimiter *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		userSvc:      p.UserSvc,
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		settingsSvc:  p.SettingsSvc,
		pointsSvc:    p.PointsSvc,
		benefitSvc:   p.BenefitSvc,
		productSvc:   p.ProductSvc,
		orderSvc:     p.OrderSvc,
		loginLimiter: p.LoginLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/v1/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.AuthRequired())

	// -------- Benefits --------
	api.GET("/benefits", s.authorize(authorization.ObjectBenefit, authorization.ActionBenefitView), s.ListBenefits)
	api.GET("/benefits/:id", s.authorize(authorization.ObjectBenefit, authorization.ActionBenefitView), s.GetBenefitByID)
	api.POST("/benefits", s.authorize(authorization.ObjectBenefit, authorization.ActionBenefitCreate), s.CreateBenefit)
	api.DELETE("/benefits/:id", s.authorize(authorization.ObjectBenefit, authorization.ActionBenefitDelete), s.DeleteBenefit)
	api.GET("/benefits/type/:type", s.authorize(authorization.ObjectBenefit, authorization.ActionBenefitView), s.ListBenefitsByType)
	api.GET("/benefits/available/:points", s.authorize(authorization.ObjectBenefit, authorization.ActionBenefitView), s.ListAvailableBenefits)
	api.POST("/benefits/check-duplicate", s.authorize(authorization.ObjectBenefit, authorization.ActionBenefitCreate), s.CheckDuplicateBenefit)

	// -------- Client self service --------
	self := s.authorize(authorization.ObjectClientSelf, authorization.ActionClientSelfView)
	api.GET("/client/points", self, s.GetClientPoints)
	api.GET("/client/points/history", self, s.GetClientPointsHistory)
	api.GET("/client/points/stream", self, s.StreamClientPoints)
	api.GET("/client/profile", self, s.GetClientProfile)
	api.GET("/client/orders", self, s.ListClientOrders)
	api.GET("/client/products", self, s.ListClientProducts)

	// -------- Settings --------
	api.GET("/settings", s.authorize(authorization.ObjectSettings, authorization.ActionSettingsView), s.ListSettings)
	api.GET("/settings/points-conversion", s.authorize(authorization.ObjectPointsRate, authorization.ActionPointsRateView), s.GetPointsConversion)
	api.PUT("/settings/points-conversion", s.authorize(authorization.ObjectSettings, authorization.ActionSettingsUpdate), s.UpdatePointsConversion)
	api.GET("/settings/clients", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.ListClients)
	api.GET("/settings/:key", s.authorize(authorization.ObjectSettings, authorization.ActionSettingsView), s.GetSetting)
	api.GET("/settings/:key/history", s.authorize(authorization.ObjectSettings, authorization.ActionSettingsView), s.GetSettingHistory)
	api.PUT("/settings/:key", s.authorize(authorization.ObjectSettings, authorization.ActionSettingsUpdate), s.SetSetting)

	// -------- Products --------
	api.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.ListProducts)
	api.GET("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.GetProductByID)
	api.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
	api.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.UpdateProduct)
	api.POST("/products/:id/stock", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.AddProductStock)
	api.DELETE("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.ArchiveProduct)

	// -------- Orders --------
	api.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.ListOrders)
	api.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrderByID)
	api.GET("/orders/:id/receipt", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrderReceipt)
	api.POST("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderCreate), s.CreateOrder)
	api.PUT("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionOrderUpdate), s.ModifyOrder)
	api.POST("/orders/:id/close", s.authorize(authorization.ObjectOrder, authorization.ActionOrderClose), s.CloseOrder)

	// -------- Users --------
	api.GET("/users/clients", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.ListClients)
	api.PATCH("/users/:id/role", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.UpdateUserRole)
	api.POST("/points/migrate", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.MigratePoints)

	// -------- Audit --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
