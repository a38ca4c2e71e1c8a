package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/admin"
	"attendanceportal/internal/attendance"
	"attendanceportal/internal/config"
	"attendanceportal/internal/httpapi"
	"attendanceportal/internal/notify"
	"attendanceportal/internal/otp"
	"attendanceportal/internal/queue"
	"attendanceportal/internal/store"
	"attendanceportal/internal/student"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Printf("invalid SCHOOL_TZ %q, falling back to UTC: %v", cfg.TimeZone, err)
		loc = time.UTC
	}

	mongoStore, err := store.NewMongo(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoStore.Close(ctx)
	}()

	redisStore := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisStore.Client, "attendance:notifications")
	}

	studentRepo := student.NewMongoRepository(mongoStore.DB)
	ledger := attendance.NewMongoLedger(mongoStore.DB)
	adminRepo := admin.NewMongoRepository(mongoStore.DB)

	reconciler := attendance.NewService(ledger, studentRepo, loc)
	students := student.NewService(studentRepo, reconciler)
	reports := attendance.NewReports(ledger, studentRepo, loc)
	admins := admin.NewService(adminRepo)
	otpStore := otp.NewStore(redisStore.Client, cfg.OTPTTL)
	whatsapp := notify.New(cfg.WhatsAppAPIURL, cfg.WhatsAppToken)
	if whatsapp.Skip {
		log.Println("WhatsApp gateway not configured (WHATSAPP_API_URL not set), messages will be skipped")
	}

	api := &httpapi.API{
		Cfg:        cfg,
		Students:   students,
		Reconciler: reconciler,
		Reports:    reports,
		Admins:     admins,
		OTP:        otpStore,
		WhatsApp:   whatsapp,
		Queue:      q,
		Loc:        loc,
		Mongo:      mongoStore,
		Redis:      redisStore,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
