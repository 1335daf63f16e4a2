package main

import (
	"database/sql"
	"flag"
	"log/slog"
	"os"

	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
	"github.com/yemun/blog/internal/contentservice"
	"github.com/yemun/blog/internal/mailservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	contentService *contentservice.ContentService
	commentService *commentservice.CommentService
	mailService    *mailservice.MailService
	broker         *common.MessageBroker
}

func main() {
	configPath := flag.String("config", ".env", "path to a dotenv config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := contentservice.NewRepository(os.DirFS(cfg.ContentDir), logger)
	if err := repo.Load(); err != nil {
		logger.Error("failed to load content", slog.String("dir", cfg.ContentDir), slog.String("error", err.Error()))
		os.Exit(1)
	}

	db := openDB(cfg, logger)
	defer common.CloseDB(db)

	cache := newCache(cfg, logger)

	// The broker is optional. A nil *MessageBroker must not end up inside the interface.
	var producer common.MessageProducer
	broker := openBroker(cfg, logger)
	if broker != nil {
		defer broker.Close()
		producer = broker
	}

	comments := commentservice.NewCommentService(db, cache, producer, logger, cfg.CommentStoreTimeout)

	if !comments.Configured() {
		logger.Warn("comment store not configured, posts are served without comments")
	}

	content := contentservice.NewContentService(repo, comments, logger)
	content.SetCommentTimeout(cfg.CommentStoreTimeout)

	app := &application{
		config:         cfg,
		logger:         logger,
		contentService: content,
		commentService: comments,
		broker:         broker,
	}

	if broker != nil && cfg.mailConfigured() {
		app.mailService = mailservice.NewMailService(broker, cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailRecipient, cfg.MailRatePerMinute, logger)
		go app.mailService.SendCommentNotifications()
	}

	err = app.serve()
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openDB returns nil when the database is not configured or unreachable.
func openDB(cfg *Config, logger *slog.Logger) *sql.DB {
	dsn := cfg.dsn()
	if dsn == "" {
		return nil
	}

	db, err := common.OpenDB(dsn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBMaxIdleTime)
	if err != nil {
		logger.Error("failed to open the database", slog.String("error", err.Error()))
		return nil
	}

	if err := common.PingDB(db); err != nil {
		// Keep the handle. database/sql reconnects once the server is back.
		logger.Warn("database is not reachable", slog.String("error", err.Error()))
		return db
	}

	if err := common.Migrate(cfg.MigrationsDir, dsn); err != nil {
		logger.Error("failed to migrate the database", slog.String("error", err.Error()))
	}

	return db
}

func newCache(cfg *Config, logger *slog.Logger) common.Cacher {
	if cfg.RedisURL != "" {
		c, err := common.NewRedisCache(cfg.RedisURL, "blog:", cfg.CacheTTL)
		if err == nil {
			return c
		}
		logger.Warn("redis unavailable, using in-memory cache", slog.String("error", err.Error()))
	}

	return common.NewCache(cfg.CacheTTL, cfg.CacheCleanupInterval)
}

func openBroker(cfg *Config, logger *slog.Logger) *common.MessageBroker {
	uri := cfg.amqpURI()
	if uri == "" {
		return nil
	}

	broker, err := common.NewMessageBroker(uri)
	if err != nil {
		logger.Warn("failed to connect to the message broker", slog.String("error", err.Error()))
		return nil
	}

	if err := common.SetupCommentExchange(broker); err != nil {
		logger.Warn("failed to setup the comment exchange", slog.String("error", err.Error()))
		broker.Close()
		return nil
	}

	return broker
}
