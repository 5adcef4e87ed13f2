package initialize

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"compliance-feed/backend/app/agentmap"
	"compliance-feed/backend/app/controllers"
	"compliance-feed/backend/app/db"
	jwtutil "compliance-feed/backend/app/jwt"
	"compliance-feed/backend/app/middleware"
	"compliance-feed/backend/app/queue"
	"compliance-feed/backend/app/repo"
	"compliance-feed/backend/app/services"
	"compliance-feed/backend/config"
	"compliance-feed/backend/global"
	"compliance-feed/backend/router"

	"gorm.io/gorm"
)

type App struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Queue    *queue.RedisQueue
	Agents   *agentmap.FileSource
	Router   http.Handler
	Status   *services.CommandStatusService
	Resolver *services.CommandResolver
	Users    *services.UserService
}

// LoadConfig reads the config file and reconfigures the process logger.
func LoadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	global.Config = cfg
	global.Logger = NewLogger(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}

func ConnectDB(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := db.Connect(db.Config{
		Driver:   cfg.DB.Driver,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Pass,
		DBName:   cfg.DB.Name,
		Path:     cfg.DB.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return gdb, nil
}

// Build wires every dependency. Close releases the queue connections. The
// schema is left alone; run the migrate command to create it.
func Build(ctx context.Context, configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	gdb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}

	agents, err := agentmap.NewFileSource(cfg.AgentMapPath)
	if err != nil {
		return nil, err
	}
	global.Logger.Info().Int64("version", agents.Snapshot().Version).Msg("agent map loaded")

	q, err := queue.NewRedisQueue(ctx, cfg.Redis.Shards, queue.WithNamespace(cfg.Redis.Namespace))
	if err != nil {
		return nil, fmt.Errorf("connect queue: %w", err)
	}
	global.Logger.Info().Strs("shards", q.Shards()).Msg("live queue connected")

	// Services
	store := repo.NewCommandHistoryRepository(gdb, cfg.Query.ScanPageSize, cfg.Query.MaxResults)
	statusSvc := services.NewCommandStatusService(store, agents, cfg.Query.RequesterGroups)
	resolver, err := services.NewCommandResolver(store, q, agents, cfg.Query.MultiTenantMinClientVersion)
	if err != nil {
		q.Close()
		return nil, err
	}
	userSvc := services.NewUserService(repo.NewUserRepository(gdb))
	if admin := cfg.Auth.BootstrapAdmin; admin.Username != "" {
		if err := userSvc.EnsureAdmin(ctx, admin.Username, admin.Password); err != nil {
			global.Logger.Warn().Err(err).Msg("bootstrap admin not created")
		}
	}

	// Controllers
	signer := &jwtutil.Signer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, ExpMin: cfg.JWT.ExpMin}
	mw := &middleware.Auth{Signer: signer, TrustedRoles: cfg.Auth.TrustedRoles}
	h := router.NewRouter(router.Controllers{
		HTTP:          controllers.NewHTTPController(),
		Auth:          controllers.NewAuthController(userSvc, mw),
		CommandStatus: controllers.NewCommandStatusController(statusSvc),
		QueryCommand:  controllers.NewQueryCommandController(resolver),
		AgentMap:      controllers.NewAgentMapController(agents),
	}, mw)

	return &App{
		Cfg:      cfg,
		DB:       gdb,
		Queue:    q,
		Agents:   agents,
		Router:   h,
		Status:   statusSvc,
		Resolver: resolver,
		Users:    userSvc,
	}, nil
}

func (a *App) Close() {
	a.Queue.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
