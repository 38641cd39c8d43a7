package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"schemaboard/internal/config"
	"schemaboard/internal/database"
	"schemaboard/internal/errs"
	"schemaboard/internal/handlers"
	"schemaboard/internal/logger"
	"schemaboard/internal/repositories"
	"schemaboard/internal/routes"
	"schemaboard/internal/services"
)

// Server owns the HTTP server and the connections behind it.
type Server struct {
	HTTP *http.Server

	pool *pgxpool.Pool
	rdb  *redis.Client
	log  *logger.Logger
}

// New connects to postgres (and redis and MinIO when configured), runs the
// migrations and wires the router.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Server, error) {
	if err := database.EnsureDatabaseExists(ctx, cfg.DB, log); err != nil {
		log.Warnf("could not ensure database exists: %v", err)
	}

	pool, err := database.Connect(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	s := &Server{pool: pool, log: log}

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		s.Close()
		return nil, err
	}

	projectRepo := repositories.NewProjectRepository(pool)
	schemaRepo := repositories.NewSchemaRepository(pool)

	var opts []services.SchemaOption
	if cfg.RedisEnabled() {
		s.rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.rdb.Ping(pingCtx).Err(); err != nil {
			s.Close()
			return nil, errs.Wrap(errs.ErrKindConnectionFailed, fmt.Sprintf("connect to redis at %s", cfg.RedisAddr), err)
		}
		log.Info("connected to redis, schema cache enabled")
		opts = append(opts, services.WithCache(repositories.NewSchemaCacheRepository(s.rdb, cfg.SchemaCacheTTL)))
	}
	if cfg.MinIOEnabled() {
		snapshots, err := repositories.NewSnapshotRepository(ctx, cfg.MinIO)
		if err != nil {
			s.Close()
			return nil, err
		}
		log.Infof("schema snapshots archived to bucket %s", cfg.MinIO.Bucket)
		opts = append(opts, services.WithSnapshots(snapshots))
	}

	projectService := services.NewProjectService(projectRepo, log)
	schemaService := services.NewSchemaService(projectRepo, schemaRepo, log, opts...)

	router := NewRouter(cfg, log, handlers.NewProjectHandler(projectService), handlers.NewSchemaHandler(schemaService))

	s.HTTP = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// NewRouter builds the gin engine with logging, recovery and CORS.
func NewRouter(cfg *config.Config, log *logger.Logger, projectHandler *handlers.ProjectHandler, schemaHandler *handlers.SchemaHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), log.GinMiddleware())

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	corsCfg.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsCfg))

	routes.RegisterRoutes(router, cfg.AccessTokenSecret, projectHandler, schemaHandler)
	return router
}

// Close releases the database and redis connections.
func (s *Server) Close() {
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.log.Warnf("closing redis: %v", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
		s.log.Info("database connection pool closed")
	}
}
