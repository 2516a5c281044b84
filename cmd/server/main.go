package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safesocial/safesocial-backend/internal/auth"
	authbiz "github.com/safesocial/safesocial-backend/internal/auth/biz"
	authdata "github.com/safesocial/safesocial-backend/internal/auth/data"
	authservice "github.com/safesocial/safesocial-backend/internal/auth/service"
	"github.com/safesocial/safesocial-backend/internal/chain"
	"github.com/safesocial/safesocial-backend/internal/conf"
	"github.com/safesocial/safesocial-backend/internal/data"
	"github.com/safesocial/safesocial-backend/internal/indexer"
	"github.com/safesocial/safesocial-backend/internal/media"
	mediabiz "github.com/safesocial/safesocial-backend/internal/media/biz"
	mediaservice "github.com/safesocial/safesocial-backend/internal/media/service"
	"github.com/safesocial/safesocial-backend/internal/message"
	messagebiz "github.com/safesocial/safesocial-backend/internal/message/biz"
	messagedata "github.com/safesocial/safesocial-backend/internal/message/data"
	messageservice "github.com/safesocial/safesocial-backend/internal/message/service"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"github.com/safesocial/safesocial-backend/internal/pkg/workerpool"
	postbiz "github.com/safesocial/safesocial-backend/internal/post/biz"
	postdata "github.com/safesocial/safesocial-backend/internal/post/data"
	postservice "github.com/safesocial/safesocial-backend/internal/post/service"
	"github.com/safesocial/safesocial-backend/internal/server"
	userbiz "github.com/safesocial/safesocial-backend/internal/user/biz"
	userdata "github.com/safesocial/safesocial-backend/internal/user/data"
	userservice "github.com/safesocial/safesocial-backend/internal/user/service"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger with config
	log, err := logger.New(&logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded successfully")

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Deploy the in-process ledger and contracts
	deployer, err := chain.ParseAddress(config.Chain.DeployerAddress)
	if err != nil {
		log.Fatal("invalid deployer address", zap.Error(err))
	}

	ledger := chain.NewLedger()
	vault := chain.NewDataVault(ledger, deployer)
	registry := chain.NewPostRegistry(ledger, vault)
	if err := vault.AuthorizeGrantor(chain.Call{Caller: deployer}, registry.Address()); err != nil {
		log.Fatal("failed to authorize registry as grantor", zap.Error(err))
	}
	for addrStr, ether := range config.Chain.SeedBalances {
		addr, err := chain.ParseAddress(addrStr)
		if err != nil {
			log.Warn("skipping invalid seed balance address", zap.String("address", addrStr))
			continue
		}
		ledger.Fund(addr, chain.Ether(ether))
	}
	log.Info("contracts deployed",
		zap.String("vault", string(vault.Address())),
		zap.String("registry", string(registry.Address())))

	// Object storage
	store, err := media.NewStore(context.Background(), &config.MinIO, log)
	if err != nil {
		log.Fatal("failed to initialize media store", zap.Error(err))
	}

	// Message cipher
	msgCipher, err := message.NewCipher(config.Auth.MessageKey)
	if err != nil {
		log.Fatal("failed to initialize message cipher", zap.Error(err))
	}

	// Initialize repositories
	userRepo := userdata.NewUserRepo(d.DB)
	authUserRepo := authdata.NewAuthUserRepo(d.DB)
	nonceRepo := authbiz.NewRedisNonceRepo(d.RedisClient)
	messageRepo := messagedata.NewMessageRepo(d.DB, msgCipher)
	feedRepo := postdata.NewFeedRepo(d.DB)
	nameDirectory := postdata.NewNameDirectory(d.DB)

	// Initialize use cases
	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer, config.Auth.TokenDuration)
	authUseCase := authbiz.NewAuthUseCase(authUserRepo, nonceRepo, jwtManager, config.Auth.NonceTTL)
	userUseCase := userbiz.NewUserUseCase(userRepo)
	postUseCase := postbiz.NewPostUseCase(registry, vault, feedRepo, nameDirectory)
	messageUseCase := messagebiz.NewMessageUseCase(messageRepo)
	mediaUseCase := mediabiz.NewMediaUseCase(store)

	// Start the feed indexer
	pool, err := workerpool.New(workerpool.DefaultConfig(), log.Logger)
	if err != nil {
		log.Fatal("failed to create worker pool", zap.Error(err))
	}
	defer pool.Shutdown()

	feedIndexer := indexer.New(ledger, registry, feedRepo, pool, log)
	feedIndexer.Start(context.Background())
	defer feedIndexer.Stop()

	// Initialize services
	services := &server.Services{
		Auth:    authservice.NewAuthService(authUseCase, log),
		User:    userservice.NewUserService(userUseCase, log),
		Post:    postservice.NewPostService(postUseCase, log),
		Message: messageservice.NewMessageService(messageUseCase, log),
		Media:   mediaservice.NewMediaService(mediaUseCase, log),
	}

	httpServer := server.NewHTTPServer(config, log, jwtManager, services)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
