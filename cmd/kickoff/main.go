package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/kickoff/internal/cli"
	"github.com/alexanderramin/kickoff/internal/config"
	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/lock"
	"github.com/alexanderramin/kickoff/internal/logging"
	"github.com/alexanderramin/kickoff/internal/notify"
	"github.com/alexanderramin/kickoff/internal/repository"
	"github.com/alexanderramin/kickoff/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("KICKOFF_CONFIG"))
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	database, err := db.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	users := repository.NewSQLiteUserRepo(database)
	entities := repository.NewSQLiteEntityRepo(database)
	processes := repository.NewSQLiteProcessRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)
	taskDeps := repository.NewSQLiteTaskDependencyRepo(database)
	notifications := repository.NewSQLiteNotificationRepo(database)

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Redis.LockTTL, logger)
	}

	// Delivery: in-app always, email through SES when enabled, both behind
	// the async queue so a slow mailer never holds a process lock.
	channels := &notify.ChannelSink{InApp: notify.NewInAppSink(notifications)}
	if cfg.Email.Enabled {
		sender, err := notify.NewSESSender(ctx, cfg.Email.Region, cfg.Email.From)
		if err != nil {
			return fmt.Errorf("configuring email: %w", err)
		}
		channels.Email = notify.NewEmailSink(users, sender)
	}
	registry := prometheus.NewRegistry()
	// Runs after the sink drains so delivery counters are final.
	defer func() {
		if err := service.WriteMetricsTextfile(cfg.Metrics.Textfile, registry); err != nil {
			logger.Warn("metrics export failed", zap.Error(err))
		}
	}()
	sink := notify.NewAsyncSink(ctx, channels, cfg.Notify.Workers, cfg.Notify.QueueSize, logger, notify.NewMetrics(registry))
	defer sink.Close()

	clock := engine.SystemClock{}
	rt := service.Runtime{
		UoW:        db.NewSQLiteUnitOfWork(database),
		Locker:     locker,
		Clock:      clock,
		Dispatcher: notify.NewDispatcher(clock, cfg.Notify.LinkBaseURL),
		Sink:       sink,
		Logger:     logger,
		Observer: service.ComposeObservers(
			service.NewLogUseCaseObserver(logger),
			service.NewMetricsUseCaseObserver(registry),
		),
	}

	app := &cli.App{
		Directory: service.NewDirectoryService(users, entities, rt),
		Templates: service.NewTemplateService(
			repository.NewSQLiteTemplateRepo(database),
			repository.NewSQLiteTemplateNodeRepo(database),
			repository.NewSQLiteTemplateDependencyRepo(database),
			entities, rt),
		Processes: service.NewProcessService(processes, tasks, taskDeps, rt),
		Status:    service.NewStatusService(tasks, rt),
		Overdue:   service.NewOverdueService(processes, tasks, taskDeps, rt),
		Inbox:     service.NewInboxService(notifications, rt),
		Agenda:    service.NewAgendaService(users, tasks, processes),
		Clock:     clock,
	}

	// Detect interactive terminal for confirmation prompts.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	logger.Debug("kickoff starting", zap.String("database", cfg.Database.Path), zap.Bool("email", cfg.Email.Enabled))
	return cli.NewRootCmd(app).Execute()
}
