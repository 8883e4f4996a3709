package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Ledger is the set of engine operations exposed over HTTP.
type Ledger interface {
	RecordDeposit(ctx context.Context, principal ledger.Principal, request ledger.DepositRequest) (ledger.DepositResult, error)
	SettleByReference(ctx context.Context, rawReference string) (ledger.SettlementResult, error)
	SetStatus(ctx context.Context, principal ledger.Principal, rawTransactionID int64, rawStatus string) (ledger.Transaction, error)
	ListHistory(ctx context.Context, principal ledger.Principal, rawUserID int64) ([]ledger.Transaction, error)
	ListRecent(ctx context.Context, principal ledger.Principal, userID int64, limit int) ([]ledger.Transaction, error)
	RequestWithdrawal(ctx context.Context, principal ledger.Principal, request ledger.WithdrawalRequest) (ledger.Transaction, error)
	ListBanks(ctx context.Context, principal ledger.Principal) ([]ledger.Bank, error)
	AuditBalance(ctx context.Context, principal ledger.Principal, rawUserID int64) (ledger.BalanceAudit, error)
	Dashboard(ctx context.Context, principal ledger.Principal) (ledger.Dashboard, error)
	BookSlots(ctx context.Context, principal ledger.Principal, request ledger.BookingRequest) (ledger.BookingResult, error)
	AddProductVariant(ctx context.Context, principal ledger.Principal, request ledger.AddProductVariantRequest) (ledger.ProductVariant, error)
	AddInventory(ctx context.Context, principal ledger.Principal, rawVariantID int64, totalSlots int64) (ledger.InventoryItem, error)
	GetStockBoard(ctx context.Context, principal ledger.Principal) (ledger.StockBoard, error)
	GetCategories(ctx context.Context, principal ledger.Principal) ([]ledger.Category, error)
	GetInventoryItem(ctx context.Context, principal ledger.Principal, rawItemID int64) (ledger.InventoryItem, error)
	ListBookings(ctx context.Context, principal ledger.Principal, scope ledger.BookingScope) ([]ledger.Booking, error)
}

// Metrics records request latency and serves the scrape endpoint.
type Metrics interface {
	ObserveHTTPRequest(route string, method string, statusCode int, elapsed time.Duration)
	Handler() http.Handler
}

// Config carries the HTTP-facing settings.
type Config struct {
	JWTSecret      string
	JWTIssuer      string
	AllowedOrigins []string
}

// Dependencies are the collaborators the router dispatches to. Metrics and Webhook are optional.
type Dependencies struct {
	Ledger  Ledger
	Webhook gin.HandlerFunc
	Metrics Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

var (
	errNilLedger     = errors.New("httpapi: ledger is nil")
	errMissingSecret = errors.New("httpapi: jwt secret is required")
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Ledger == nil {
		return nil, errNilLedger
	}
	if cfg.JWTSecret == "" {
		return nil, errMissingSecret
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	handler := &httpHandler{ledger: deps.Ledger, logger: deps.Logger, now: deps.Now}
	verifier := newTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Metrics != nil {
		router.Use(metricsMiddleware(deps.Metrics))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Origin", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api")
	if deps.Webhook != nil {
		api.POST("/savings/webhook", deps.Webhook)
	}
	api.GET("/savings/verify", handler.handleVerify)

	authenticated := api.Group("")
	authenticated.Use(verifier.middleware())

	savings := authenticated.Group("/savings")
	savings.POST("/deposit", handler.handleDeposit)
	savings.PATCH("/update-status", handler.handleUpdateStatus)
	savings.GET("/history", handler.handleHistory)
	savings.GET("/history/:userId", handler.handleHistory)
	savings.GET("/recent", handler.handleRecent)
	savings.POST("/withdraw", handler.handleWithdraw)
	savings.GET("/banks", handler.handleBanks)
	savings.GET("/audit/:userId", handler.handleAudit)

	authenticated.GET("/dashboard", handler.handleDashboard)

	inventory := authenticated.Group("/inventory")
	inventory.GET("", handler.handleStockBoard)
	inventory.GET("/categories", handler.handleCategories)
	inventory.GET("/my-bookings", handler.handleMyBookings)
	inventory.GET("/all-bookings", handler.handleAllBookings)
	inventory.GET("/all-bookings/export", handler.handleExportBookings)
	inventory.POST("/book", handler.handleBook)
	inventory.POST("/add", handler.handleAddInventory)
	inventory.POST("/variants", handler.handleAddVariant)
	inventory.GET("/:id", handler.handleInventoryItem)

	return router, nil
}

func metricsMiddleware(metrics Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(route, ctx.Request.Method, ctx.Writer.Status(), time.Since(started))
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down within shutdownTimeout.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger, shutdownTimeout time.Duration) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("savings api listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type httpHandler struct {
	ledger Ledger
	logger *zap.Logger
	now    func() time.Time
}
