package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mariastapazzol/sanare/internal/bot"
	"github.com/mariastapazzol/sanare/internal/clock"
	"github.com/mariastapazzol/sanare/internal/config"
	"github.com/mariastapazzol/sanare/internal/notify"
	"github.com/mariastapazzol/sanare/internal/repository"
	"github.com/mariastapazzol/sanare/internal/service"
)

func main() {
	configPath := flag.String("config", "sanare.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	itemRepo := repository.NewItemRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	resolver := clock.NewResolver(clock.SystemSource{}, loc)

	var api *tgbotapi.BotAPI
	if cfg.Telegram.Token != "" {
		api, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Fatalf("bot api: %v", err)
		}
		log.Printf("[info] bot authorized on account %s", api.Self.UserName)
	}

	// Without a delivery channel the engine still runs; notifications degrade
	// to a no-op and stale handles get cleared on the startup sweep.
	var notifier notify.Notifier = notify.Noop{}
	var cronNotifier *notify.CronNotifier
	if api != nil && cfg.Notifications.Enabled {
		cronNotifier = notify.NewCronNotifier(notify.NewTelegramSender(api, cfg.Telegram.ChatID), loc)
		cronNotifier.Start()
		defer cronNotifier.Stop()
		notifier = cronNotifier
	}

	stockSvc := service.NewStockService(itemRepo, cfg.Profile.ID)
	checklistSvc := service.NewChecklistService(itemRepo, statusRepo, resolver, stockSvc, cfg.Profile.ID)
	notificationSvc := service.NewNotificationService(notifier, itemRepo, loc)
	itemSvc := service.NewItemService(itemRepo, notificationSvc, checklistSvc, cfg.Profile.ID)

	if err := checklistSvc.Reload(ctx); err != nil {
		log.Printf("[warn] initial reload: %v", err)
	}
	if err := notificationSvc.SweepProfile(ctx, cfg.Profile.ID); err != nil {
		log.Printf("[warn] startup notification sweep: %v", err)
	}

	if api == nil {
		log.Println("[info] no telegram token, running headless")
		reconciler := service.NewReconciler(resolver, checklistSvc, service.NoopForeground{})
		stopReconciler := reconciler.Start(ctx)
		defer stopReconciler()
		<-ctx.Done()
		log.Println("Shutdown complete.")
		return
	}

	telegramBot := bot.New(api, checklistSvc, stockSvc, itemSvc, cfg.Telegram.ChatID)

	reconciler := service.NewReconciler(resolver, checklistSvc, telegramBot)
	stopReconciler := reconciler.Start(ctx)
	defer stopReconciler()

	log.Println("Sanare agent started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
