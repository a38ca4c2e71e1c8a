package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"attendanceportal/internal/config"
	"attendanceportal/internal/notify"
	"attendanceportal/internal/queue"
	"attendanceportal/internal/store"
)

// Worker consumes queued absence notices and delivers them over WhatsApp.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:notifications")
	}

	whatsapp := notify.New(cfg.WhatsAppAPIURL, cfg.WhatsAppToken)
	if whatsapp.Skip {
		log.Println("WhatsApp gateway not configured, notices will be logged and skipped")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeAbsentNotice {
			continue
		}

		var notice queue.AbsentNotice
		if err := json.Unmarshal(msg.Body, &notice); err != nil {
			log.Printf("malformed absent notice dropped: %v", err)
			continue
		}

		if err := whatsapp.SendAbsentNotice(ctx, notice.Contact, notice.Name, notice.Date); err != nil {
			log.Printf("absent notice for %s (%s) failed: %v", notice.Name, notice.Barcode, err)
			continue
		}
		log.Printf("absent notice delivered for %s (%s)", notice.Name, notice.Barcode)
	}

	log.Println("worker stopped")
}
