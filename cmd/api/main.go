package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/warehouse-engine/pkg/cloudevents"
	"github.com/wms-platform/warehouse-engine/pkg/errors"
	"github.com/wms-platform/warehouse-engine/pkg/kafka"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
	"github.com/wms-platform/warehouse-engine/pkg/metrics"
	"github.com/wms-platform/warehouse-engine/pkg/middleware"
	"github.com/wms-platform/warehouse-engine/pkg/mongodb"

	"github.com/wms-platform/warehouse-engine/internal/application"
	"github.com/wms-platform/warehouse-engine/internal/domain"
	kafkaInfra "github.com/wms-platform/warehouse-engine/internal/infrastructure/kafka"
	mongoRepo "github.com/wms-platform/warehouse-engine/internal/infrastructure/mongodb"
)

const serviceName = "warehouse-engine"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting warehouse-engine API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	metrics.SetDefault(m)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer and the audit sink
	kafkaProducer := kafka.NewProducer(config.Kafka)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceAPI)
	publisher := kafkaInfra.NewEventPublisher(kafkaProducer, eventFactory, m, logger)

	// Initialize repositories
	db := mongoClient.Database()
	skuRepo := mongoRepo.NewSKURepository(db)
	slotRepo := mongoRepo.NewSlotRepository(db)
	palletRepo := mongoRepo.NewPalletRepository(db)
	orderRepo := mongoRepo.NewOrderRepository(db)
	missionRepo := mongoRepo.NewMissionRepository(db)
	countRepo := mongoRepo.NewCountRepository(db)

	// Initialize application services
	ledgerService := application.NewLedgerService(slotRepo, palletRepo, publisher, logger)
	inventoryService := application.NewInventoryService(skuRepo, slotRepo, palletRepo, orderRepo, logger)
	putawayService := application.NewPutawayService(palletRepo, skuRepo, slotRepo, ledgerService, logger)
	allocationService := application.NewAllocationService(orderRepo, skuRepo, palletRepo, slotRepo, missionRepo, publisher, logger)
	missionService := application.NewMissionService(missionRepo, palletRepo, slotRepo, orderRepo, ledgerService, publisher, logger)
	countService := application.NewCountService(countRepo, slotRepo, palletRepo, ledgerService, publisher, logger)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	v1 := router.Group("/api/v1")

	skus := v1.Group("/skus")
	{
		skus.POST("", createSKUHandler(inventoryService, logger))
		skus.GET("/:code", getSKUHandler(inventoryService, logger))
		skus.POST("/:code/block", blockSKUHandler(inventoryService, logger))
		skus.POST("/:code/activate", activateSKUHandler(inventoryService, logger))
	}

	slots := v1.Group("/slots")
	{
		slots.POST("", createSlotHandler(inventoryService, logger))
		slots.GET("", listSlotsHandler(inventoryService, logger))
		slots.GET("/:code", getSlotHandler(inventoryService, logger))
		slots.GET("/:code/pallets", getSlotPalletsHandler(inventoryService, logger))
		slots.POST("/:code/block", blockSlotHandler(inventoryService, logger))
		slots.POST("/:code/unblock", unblockSlotHandler(inventoryService, logger))
	}

	pallets := v1.Group("/pallets")
	{
		pallets.POST("/receipts", receivePalletsHandler(inventoryService, logger))
		pallets.GET("/:label", getPalletHandler(inventoryService, logger))
		pallets.POST("/:label/identify", identifyPalletHandler(inventoryService, logger))
		pallets.GET("/:label/putaway-suggestion", suggestPutawayHandler(putawayService, logger))
		pallets.POST("/:label/putaway", confirmPutawayHandler(putawayService, logger))
	}

	orders := v1.Group("/orders")
	{
		orders.POST("", createOrderHandler(inventoryService, logger))
		orders.GET("/:number", getOrderHandler(inventoryService, logger))
		orders.POST("/:number/allocate", allocateOrderHandler(allocationService, logger))
		orders.GET("/:number/missions", getOrderMissionsHandler(missionService, logger))
		orders.POST("/:number/ship", shipOrderHandler(missionService, logger))
	}

	missions := v1.Group("/missions")
	{
		missions.POST("/assign", assignMissionHandler(missionService, logger))
		missions.GET("/status/:status", getMissionsByStatusHandler(missionService, logger))
		missions.GET("/:missionId", getMissionHandler(missionService, logger))
		missions.POST("/:missionId/start", startMissionHandler(missionService, logger))
		missions.POST("/:missionId/complete", completeMissionHandler(missionService, logger))
		missions.POST("/:missionId/revert", revertMissionHandler(missionService, logger))
		missions.DELETE("/:missionId", deleteMissionHandler(missionService, logger))
	}

	counts := v1.Group("/counts")
	{
		counts.POST("", startCountSessionHandler(countService, logger))
		counts.GET("/:sessionId/next", nextCountLocationHandler(countService, logger))
		counts.POST("/:sessionId/items", submitCountHandler(countService, logger))
		counts.POST("/:sessionId/undo", undoCountHandler(countService, logger))
		counts.POST("/:sessionId/close", closeCountSessionHandler(countService, logger))
		counts.GET("/:sessionId/summary", countSummaryHandler(countService, logger))
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "warehouse_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTP Handlers

func respondError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		responder.RespondWithAppError(appErr)
	} else {
		responder.RespondInternalError(err)
	}
}

func createSKUHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Code           string   `json:"code" binding:"required,sku"`
			Description    string   `json:"description" binding:"omitempty,safe_string"`
			UnitsPerPallet int      `json:"unitsPerPallet" binding:"min=0"`
			Tags           []string `json:"tags"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		sku, err := service.CreateSKU(c.Request.Context(), application.CreateSKUCommand{
			Code:           req.Code,
			Description:    req.Description,
			UnitsPerPallet: req.UnitsPerPallet,
			Tags:           req.Tags,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, sku)
	}
}

func getSKUHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sku, err := service.GetSKU(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, sku)
	}
}

func blockSKUHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Reason string `json:"reason" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		sku, err := service.BlockSKU(c.Request.Context(), c.Param("code"), req.Reason)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, sku)
	}
}

func activateSKUHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sku, err := service.ActivateSKU(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, sku)
	}
}

func createSlotHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Code     string   `json:"code" binding:"required,slot_code"`
			Usage    string   `json:"usage" binding:"required"`
			Capacity int      `json:"capacity"`
			Tags     []string `json:"tags"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		slot, err := service.CreateSlot(c.Request.Context(), application.CreateSlotCommand{
			Code:     req.Code,
			Usage:    domain.SlotUsage(req.Usage),
			Capacity: req.Capacity,
			Tags:     req.Tags,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, slot)
	}
}

func listSlotsHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		slots, err := service.GetSlotsByPrefix(c.Request.Context(), c.Query("prefix"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"slots": slots, "total": len(slots)})
	}
}

func getSlotHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		slot, err := service.GetSlot(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, slot)
	}
}

func getSlotPalletsHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pallets, err := service.GetPalletsBySlot(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"pallets": pallets, "total": len(pallets)})
	}
}

func blockSlotHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		slot, err := service.BlockSlot(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, slot)
	}
}

func unblockSlotHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		slot, err := service.UnblockSlot(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, slot)
	}
}

func receivePalletsHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ReceiptNumber string `json:"receiptNumber" binding:"required,safe_string"`
			Count         int    `json:"count" binding:"required,min=1"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		pallets, err := service.ReceivePallets(c.Request.Context(), application.ReceivePalletsCommand{
			ReceiptNumber: req.ReceiptNumber,
			Count:         req.Count,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"pallets": pallets, "total": len(pallets)})
	}
}

func getPalletHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pallet, err := service.GetPallet(c.Request.Context(), c.Param("label"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pallet)
	}
}

func identifyPalletHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			SKUCode    string     `json:"skuCode" binding:"required,sku"`
			Quantity   int        `json:"quantity" binding:"required,min=1"`
			LotCode    string     `json:"lotCode" binding:"omitempty,safe_string"`
			ExpiryDate *time.Time `json:"expiryDate"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		pallet, err := service.IdentifyPallet(c.Request.Context(), application.IdentifyPalletCommand{
			PalletLabel: c.Param("label"),
			SKUCode:     req.SKUCode,
			Quantity:    req.Quantity,
			LotCode:     req.LotCode,
			ExpiryDate:  req.ExpiryDate,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pallet)
	}
}

func suggestPutawayHandler(service *application.PutawayService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		slot, err := service.Suggest(c.Request.Context(), c.Param("label"))
		if err != nil {
			respondError(responder, err)
			return
		}
		if slot == nil {
			c.JSON(http.StatusOK, gin.H{"slot": nil})
			return
		}

		c.JSON(http.StatusOK, gin.H{"slot": slot})
	}
}

func confirmPutawayHandler(service *application.PutawayService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			SlotCode string `json:"slotCode" binding:"required,slot_code"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		err := service.Confirm(c.Request.Context(), application.ConfirmCommand{
			PalletLabel: c.Param("label"),
			SlotCode:    req.SlotCode,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "stored"})
	}
}

func createOrderHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Number string `json:"number" binding:"required,safe_string"`
			Lines  []struct {
				SKUCode  string `json:"skuCode" binding:"required,sku"`
				LotCode  string `json:"lotCode" binding:"omitempty,safe_string"`
				Quantity int    `json:"quantity"`
			} `json:"lines" binding:"required,min=1"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		lines := make([]domain.OrderLine, 0, len(req.Lines))
		for _, l := range req.Lines {
			lines = append(lines, domain.OrderLine{
				SKUCode:  l.SKUCode,
				LotCode:  l.LotCode,
				Quantity: l.Quantity,
			})
		}

		order, err := service.CreateOrder(c.Request.Context(), application.CreateOrderCommand{
			Number: req.Number,
			Lines:  lines,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, order)
	}
}

func getOrderHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		order, err := service.GetOrder(c.Request.Context(), c.Param("number"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func allocateOrderHandler(service *application.AllocationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		result, err := service.Run(c.Request.Context(), application.RunCommand{
			OrderNumber: c.Param("number"),
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func shipOrderHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		order, err := service.ShipOrder(c.Request.Context(), c.Param("number"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func getOrderMissionsHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		missions, err := service.GetMissionsByOrder(c.Request.Context(), c.Param("number"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"missions": missions, "total": len(missions)})
	}
}

func assignMissionHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			OperatorID string `json:"operatorId" binding:"required,operator_id"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		mission, err := service.AssignNext(c.Request.Context(), req.OperatorID)
		if err != nil {
			respondError(responder, err)
			return
		}
		if mission == nil {
			c.Status(http.StatusNoContent)
			return
		}

		c.JSON(http.StatusOK, mission)
	}
}

func getMissionsByStatusHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		status := domain.MissionStatus(c.Param("status"))
		pagination := domain.DefaultPagination()

		missions, err := service.GetMissionsByStatus(c.Request.Context(), status, pagination)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"missions": missions, "total": len(missions)})
	}
}

func getMissionHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		mission, err := service.GetMission(c.Request.Context(), c.Param("missionId"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, mission)
	}
}

func startMissionHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			OperatorID string `json:"operatorId" binding:"omitempty,operator_id"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		mission, err := service.Start(c.Request.Context(), application.StartCommand{
			MissionID:  c.Param("missionId"),
			OperatorID: req.OperatorID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, mission)
	}
}

func completeMissionHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ActualQuantity   int    `json:"actualQuantity" binding:"min=0"`
			DivergenceReason string `json:"divergenceReason" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		mission, err := service.Complete(c.Request.Context(), application.CompleteCommand{
			MissionID:        c.Param("missionId"),
			ActualQuantity:   req.ActualQuantity,
			DivergenceReason: req.DivergenceReason,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, mission)
	}
}

func revertMissionHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		mission, err := service.Revert(c.Request.Context(), c.Param("missionId"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, mission)
	}
}

func deleteMissionHandler(service *application.MissionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		if err := service.Delete(c.Request.Context(), c.Param("missionId")); err != nil {
			respondError(responder, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func startCountSessionHandler(service *application.CountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Scope      string `json:"scope" binding:"required,slot_code"`
			OperatorID string `json:"operatorId" binding:"omitempty,operator_id"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		session, err := service.StartSession(c.Request.Context(), application.StartSessionCommand{
			Scope:      req.Scope,
			OperatorID: req.OperatorID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, session)
	}
}

func nextCountLocationHandler(service *application.CountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		slot, err := service.NextPendingLocation(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			respondError(responder, err)
			return
		}
		if slot == nil {
			c.Status(http.StatusNoContent)
			return
		}

		c.JSON(http.StatusOK, slot)
	}
}

func submitCountHandler(service *application.CountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			SlotCode   string     `json:"slotCode" binding:"required,slot_code"`
			Outcome    string     `json:"outcome" binding:"required,oneof=counted empty skipped"`
			SKUCode    string     `json:"skuCode" binding:"omitempty,sku"`
			LotCode    string     `json:"lotCode" binding:"omitempty,safe_string"`
			Quantity   int        `json:"quantity"`
			ExpiryDate *time.Time `json:"expiryDate"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		item, err := service.Submit(c.Request.Context(), application.SubmitCommand{
			SessionID:  c.Param("sessionId"),
			SlotCode:   req.SlotCode,
			Outcome:    domain.CountOutcome(req.Outcome),
			SKUCode:    req.SKUCode,
			LotCode:    req.LotCode,
			Quantity:   req.Quantity,
			ExpiryDate: req.ExpiryDate,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, item)
	}
}

func undoCountHandler(service *application.CountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		if err := service.UndoLast(c.Request.Context(), c.Param("sessionId")); err != nil {
			respondError(responder, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func closeCountSessionHandler(service *application.CountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		session, err := service.CloseSession(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

func countSummaryHandler(service *application.CountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		summary, err := service.Summary(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
