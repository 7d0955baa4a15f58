package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"LectureBot/ai/gpt"
	"LectureBot/bot"
	"LectureBot/bot/chat"
	"LectureBot/bot/chat/admin"
	"LectureBot/bot/chat/commands"
	"LectureBot/bot/chat/lectures"
	"LectureBot/bot/chat/taxonomy"
	"LectureBot/bot/whatsapp"
	"LectureBot/impl/core"
	"LectureBot/internal/cache"
	"LectureBot/internal/config"
	repository "LectureBot/internal/database"
	"LectureBot/internal/http-server/api"
	"LectureBot/internal/lib/export"
	"LectureBot/internal/lib/logger"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/metrics"
	"LectureBot/internal/service/folders"
	"LectureBot/internal/storage"
	"LectureBot/internal/storage/blob"
	"LectureBot/internal/storage/jsonfile"
	"LectureBot/internal/storage/postgres"
	"LectureBot/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")
		}
	}

	lg.Info("starting lecturebot", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	mtr := metrics.New()
	hub := ws.NewHub(lg)
	go hub.Run()

	handler := core.New(lg)
	handler.SetAuthKey(conf.Bot.Password)
	handler.SetOwner(conf.Bot.OwnerID)
	handler.SetMetrics(mtr)
	handler.SetBroadcaster(hub)

	// *** persistence ***
	repo, blobs, mongoDB, err := openStorage(ctx, conf, lg)
	if err != nil {
		lg.Error("open storage", sl.Err(err))
		return
	}
	defer func() { _ = repo.Close() }()
	handler.SetRepository(repo)
	handler.SetBlobStore(blobs)

	sessions, err := openSessions(conf, mongoDB, lg)
	if err != nil {
		lg.Error("open session store", sl.Err(err))
		return
	}

	// *** whatsapp transport ***
	waDB, err := postgres.Open(ctx, conf.WhatsAppDatabaseURL())
	if err != nil {
		lg.Error("open whatsapp device store", sl.Err(err))
		return
	}
	defer func() { _ = waDB.Close() }()

	waBot, err := whatsapp.New(ctx, waDB.DB, conf.WhatsApp.PairPhone, conf.WhatsApp.LogLevel, lg)
	if err != nil {
		lg.Error("whatsapp client", sl.Err(err))
		return
	}
	waBot.SetHandler(handler)
	handler.SetMessenger(waBot)
	handler.SetGroupManager(waBot)
	handler.SetTransport(waBot)

	// *** conversations ***
	exporter := export.NewPDFExporter(conf.Export.FontPath)
	handler.SetExporter(exporter)

	engine := chat.NewChatEngine(sessions, conf.StateTimeout(), lg)
	engine.SetAuthorizer(handler)
	engine.SetListener(mtr)
	handler.SetEngine(engine)

	lectureModule := lectures.New(repo, blobs, lectures.Options{
		StorageChatID: conf.Bot.StorageGroupID,
		ArchiveChatID: conf.Bot.ArchiveGroupID,
	}, lg)
	lectureModule.SetListener(handler)
	if err = lectureModule.Register(engine); err != nil {
		lg.Error("register lectures", sl.Err(err))
		return
	}
	if err = taxonomy.New(repo, lg).Register(engine); err != nil {
		lg.Error("register taxonomy", sl.Err(err))
		return
	}
	if err = admin.New(waBot, repo, blobs, exporter, lg).Register(engine); err != nil {
		lg.Error("register admin", sl.Err(err))
		return
	}

	assistant, err := newAssistant(ctx, conf, lg)
	if err != nil {
		lg.Error("ai assistant", sl.Err(err))
		return
	}
	assistant.SetObserver(mtr)
	commands.New(assistant, repo, handler, conf.Bot.Password, lg).Register(engine)

	// *** folder provisioning ***
	provisioner, err := newProvisioner(ctx, conf)
	if err != nil {
		lg.Error("folder provisioner", sl.Err(err))
		return
	}
	handler.SetProvisioner(provisioner)
	lg.Info("folder provisioner", slog.String("name", provisioner.Name()))
	folders.NewReconciler(conf.Folders.ReconcileEvery, handler.ReconcileSections, lg).Start(ctx)

	if tgBot != nil {
		tgBot.SetStatus(func() string {
			return fmt.Sprintf("whatsapp connected: %t, ws clients: %d", handler.Connected(), hub.Clients())
		})
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot error", sl.Err(err))
			}
		}()
		defer tgBot.Stop()
	}

	if err = waBot.Start(ctx); err != nil {
		lg.Error("whatsapp start", sl.Err(err))
		return
	}
	defer waBot.Stop()

	if conf.Listen.Enabled {
		go func() {
			if err := api.New(conf, lg, handler, mtr.Handler(), hub); err != nil {
				lg.Error("server start", sl.Err(err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	lg.Info("service stopped")
}

func openStorage(ctx context.Context, conf *config.Config, lg *slog.Logger) (storage.Repository, storage.BlobStore, *repository.MongoDB, error) {
	switch conf.Storage.Driver {
	case config.StorageMongo:
		db := repository.NewMongoClient(conf, lg)
		if err := db.Ping(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("mongo ping: %w", err)
		}
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
		return db, repository.NewGridFS(db), db, nil

	case config.StoragePostgres:
		db, err := postgres.Open(ctx, conf.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err = postgres.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		blobs, err := blob.NewLocalStorage(conf.Storage.BlobDir)
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		lg.Info("postgres storage initialized")
		return postgres.New(db), blobs, nil, nil

	default:
		store, err := jsonfile.New(conf.Storage.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		blobs, err := blob.NewLocalStorage(conf.Storage.BlobDir)
		if err != nil {
			return nil, nil, nil, err
		}
		lg.Info("json storage initialized", slog.String("dir", conf.Storage.DataDir))
		return store, blobs, nil, nil
	}
}

func openSessions(conf *config.Config, mongoDB *repository.MongoDB, lg *slog.Logger) (chat.ChatStateStorage, error) {
	switch conf.Session.Driver {
	case config.SessionRedis:
		client, err := cache.NewRedis(conf.Session.RedisURL)
		if err != nil {
			return nil, err
		}
		lg.Info("redis session store initialized")
		return chat.NewRepositoryStorage(cache.NewSessionRepository(client, conf.StateTimeout())), nil
	case config.SessionMongo:
		if mongoDB == nil {
			mongoDB = repository.NewMongoClient(conf, lg)
		}
		return chat.NewRepositoryStorage(mongoDB), nil
	default:
		return chat.NewMemoryStorage(), nil
	}
}

func newAssistant(ctx context.Context, conf *config.Config, lg *slog.Logger) (*gpt.Assistant, error) {
	var provider gpt.Provider
	switch strings.ToLower(conf.AI.Provider) {
	case gpt.ProviderOpenAI:
		provider = gpt.NewOpenAIProvider(conf.AIKey(), conf.AI.BaseURL, conf.AI.Model)
	default:
		p, err := gpt.NewGeminiProvider(ctx, conf.AIKey(), conf.AI.Model)
		if err != nil {
			return nil, err
		}
		provider = p
	}
	lg.With(
		slog.String("provider", provider.Name()),
		sl.Secret("api_key", conf.AIKey()),
	).Info("ai assistant initialized")
	return gpt.NewAssistant(provider, conf.AI.RatePerMin, lg), nil
}

func newProvisioner(ctx context.Context, conf *config.Config) (core.Provisioner, error) {
	switch conf.Folders.Provider {
	case "github":
		return folders.NewGitHub(ctx, conf.Folders.GitHubToken, conf.Folders.GitHubOwner, conf.Folders.GitHubRepo, conf.Folders.GitHubBranch), nil
	case "drive":
		return folders.NewDrive(ctx, conf.Folders.DriveCreds, conf.Folders.DriveParentID)
	default:
		return folders.Nop{}, nil
	}
}
