package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/logger"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	cf := config.GetConfig()
	lg := logger.New("storefront")

	conn, err := db.GetDbConn(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)
	if err != nil {
		log.Fatal(err)
	}
	dao := db.NewDbDao(conn)
	if err := dao.InitMigrate(); err != nil {
		log.Fatal(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cf.RedisAddr,
		Password: cf.RedisPassword,
		DB:       cf.RedisDB,
	})

	// repository
	orderRepo := db.NewOrderRepo(dao)
	productRepo := db.NewProductRepo(dao)
	couponRepo := db.NewCouponRepo(dao)
	campaignRepo := db.NewCampaignRepo(dao)
	paymentRepo := db.NewPaymentRepo(dao)
	stockRepo := redis_repo.NewStockRepo(redisClient)
	cartRepo := redis_repo.NewCartRepo(redisClient)
	sequenceRepo := redis_repo.NewSequenceRepo(redisClient)

	eventProducer := producer.New(producer.Config{
		Brokers: cf.KafkaBrokers,
		Topic:   cf.KafkaEventTopic,
	})
	defer eventProducer.Close()

	paymentGateway := gateway.NewHTTPPaymentGateway(cf.PaymentGatewayURL, &http.Client{Timeout: 10 * time.Second})

	shipping := service.ShippingPolicy{
		Fee:           mustDecimal(cf.ShippingFee, "80"),
		FreeThreshold: mustDecimal(cf.FreeShippingThreshold, "1000"),
	}

	// service
	stockService := service.NewStockService(stockRepo, lg)
	discountService := service.NewDiscountService(couponRepo, campaignRepo, orderRepo)
	cartService := service.NewCartService(cartRepo, productRepo, stockService, discountService)
	orderService := service.NewOrderService(orderRepo, productRepo, paymentRepo, cartRepo, sequenceRepo,
		stockService, discountService, eventProducer, shipping, lg)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, cartRepo, paymentGateway,
		stockService, eventProducer, lg)
	couponService := service.NewCouponService(couponRepo)
	campaignService := service.NewCampaignService(campaignRepo, discountService)
	sweeper := service.NewCampaignSweeper(campaignRepo, time.Duration(cf.CampaignSweepInterval)*time.Second, lg)

	// handler
	server := api.NewServer(
		handler.NewCartHandler(cartService),
		handler.NewOrderHandler(orderService),
		handler.NewPaymentHandler(paymentService, cf),
		handler.NewAdminHandler(couponService, campaignService, stockService),
	)

	r := router.SetupRouter(server, &lg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cf.ServerPort),
		Handler: r,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		lg.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		lg.Info().Msg("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		lg.Error().Err(err).Msg("server exited with error")
	}
	lg.Info().Msg("closed completed")
}

func mustDecimal(raw, fallback string) decimal.Decimal {
	if raw == "" {
		raw = fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		log.Fatalf("invalid decimal config value %q: %v", raw, err)
	}
	return v
}
