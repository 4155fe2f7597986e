package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/digitalindian/service-site-api/internal/admin"
	"github.com/digitalindian/service-site-api/internal/blog"
	blogrepo "github.com/digitalindian/service-site-api/internal/blog/repo"
	"github.com/digitalindian/service-site-api/internal/chatbot"
	"github.com/digitalindian/service-site-api/internal/contact"
	"github.com/digitalindian/service-site-api/internal/mailer"
	"github.com/digitalindian/service-site-api/internal/notify"
	"github.com/digitalindian/service-site-api/internal/router"
	"github.com/digitalindian/service-site-api/internal/subscriber"
	subrepo "github.com/digitalindian/service-site-api/internal/subscriber/repo"
	"github.com/digitalindian/service-site-api/pkg/database"
	"github.com/digitalindian/service-site-api/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-site-api")

	dbCfg := database.ConfigFromEnv()
	db, err := database.Connect(dbCfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// schema setup is idempotent; failures here are fatal because nothing
	// downstream works without the tables
	setupCtx, cancelSetup := context.WithTimeout(ctx, 10*time.Second)
	subRepo := subrepo.NewSubscriberRepo(db)
	postRepo := blogrepo.NewPostRepo(db)
	if err := subRepo.EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure subscribers table: %v", err)
	}
	if err := postRepo.EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure posts table: %v", err)
	}
	if err := subscriber.EnsureTrigger(setupCtx, db); err != nil {
		// the watcher is diagnostics only; a store without trigger support
		// must not block startup
		sugar.Warnf("ensure subscriber trigger: %v", err)
	}
	cancelSetup()

	mailCfg := mailer.ConfigFromEnv()
	smtpMailer := mailer.NewSMTPMailer(mailCfg, sugar)
	verifyCtx, cancelVerify := context.WithTimeout(ctx, 10*time.Second)
	if err := smtpMailer.Verify(verifyCtx); err != nil {
		sugar.Warnf("email server connection check failed: %v", err)
	} else {
		sugar.Info("email server connection is ready")
	}
	cancelVerify()

	baseURL := os.Getenv("SITE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	subSvc := subscriber.NewService(subRepo, smtpMailer, mailCfg.From, sugar)
	blogSvc := blog.NewService(postRepo)
	adminSvc := admin.NewService(admin.ConfigFromEnv())
	chatSvc := chatbot.NewService(chatbot.ConfigFromEnv(), sugar)
	tokens := contact.NewTokenStore(15 * time.Minute)

	// change watcher: observational only, started best-effort
	watcher := subscriber.NewWatcher(dbCfg.DSN, sugar)
	watcher.Observe(func(email string) {
		countCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := subRepo.Count(countCtx)
		if err != nil {
			sugar.Warnw("subscriber count after insert", "err", err)
			return
		}
		sugar.Infof("total subscribers: %d", n)
	})
	if err := watcher.Start(ctx); err != nil {
		sugar.Warnf("failed to start subscriber watcher: %v", err)
	} else {
		defer watcher.Stop()
	}

	// blog update poller drives the notification dispatcher
	dispatcher := notify.NewDispatcher(subRepo, blogSvc, smtpMailer, mailCfg.From, baseURL, sugar)
	poller := notify.NewPoller(blogSvc, dispatcher, notify.PollInterval(), sugar)
	if err := poller.Start(ctx); err != nil {
		sugar.Fatalf("failed to start blog update poller: %v", err)
	}
	defer poller.Stop()

	handler := router.RegisterRoutes(sugar, router.Handlers{
		Subscriber: subscriber.NewHandler(subSvc, sugar),
		Blog:       blog.NewHandler(blogSvc, sugar),
		Contact:    contact.NewHandler(contact.ConfigFromEnv(), tokens, smtpMailer, sugar),
		Chatbot:    chatbot.NewHandler(chatSvc, sugar),
		Admin:      admin.NewHandler(adminSvc, sugar),
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infof("http server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancelDone := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDone()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
