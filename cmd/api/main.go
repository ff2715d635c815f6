package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/notify"
	cartrepo "storefront/internal/repository/cart"
	customerrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	sessionrepo "storefront/internal/repository/session"
	tokenrepo "storefront/internal/repository/token"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	defer rdb.Close()

	notifiers := notify.Fanout{notify.RequestNotifier{}, notify.NewLogNotifier(logger)}
	var publisher ordersvc.Publisher
	if cfg.AMQPURL != "" {
		amqpPub, err := notify.DialAMQP(notify.AMQPConfig{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange}, logger)
		if err != nil {
			logger.Fatalf("connect to amqp: %v", err)
		}
		defer amqpPub.Close()
		notifiers = append(notifiers, amqpPub)
		publisher = amqpPub
	} else {
		logger.Printf("AMQP_URL not set, events are only logged")
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	cartService := cartsvc.New(cartRepo, productRepo, notifiers, cfg.ShippingFee, logger)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	customerService := customersvc.New(customerRepo, tokenrepo.NewPostgres(dbpool), logger)
	anonymousService := anonymoussvc.New(sessionrepo.NewRedis(rdb, "storefront"), cfg.AnonymousTTL)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), cartRepo, ordersvc.Options{
		ShippingFee: cfg.ShippingFee,
		PageSize:    cfg.OrderPageSize,
		Notifier:    notifiers,
		Publisher:   publisher,
		Logger:      logger,
	})
	gate := checkout.NewGate(orderService, notifiers, cfg.LoginPath, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:   productService,
		CustomerSvc:  customerService,
		AnonymousSvc: anonymousService,
		CartSvc:      cartService,
		OrderSvc:     orderService,
		Checkout:     gate,
		CORSOrigins:  cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
