package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/annotations"
	"annotation-backend/internal/assignments"
	"annotation-backend/internal/documents"
	"annotation-backend/internal/events"
	"annotation-backend/internal/search"
	"annotation-backend/internal/services/health"
	"annotation-backend/internal/shared/config"
	"annotation-backend/internal/shared/server"
	"annotation-backend/internal/shared/storage/db"
	"annotation-backend/internal/shared/storage/object"
	localstore "annotation-backend/internal/shared/storage/object/local"
	s3store "annotation-backend/internal/shared/storage/object/s3"
	"annotation-backend/internal/shared/telemetry"
	"annotation-backend/internal/stats"
	"annotation-backend/internal/users"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.ObjectStore
	Events             events.Publisher
	SearchIndex        *search.Index
	UsersRepo          users.Repo
	DocumentsRepo      documents.Repo
	AnnotationsRepo    annotations.Repo
	StatsStore         stats.Store
	UsersService       *users.Service
	DocumentsService   *documents.Service
	AnnotationsService *annotations.Service
	AssignmentsService *assignments.Service
	StatsService       *stats.Service
	HealthService      *health.Service
}

// Build wires repositories, services and handlers for cfg.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if cfg.DefaultPageLimit <= 0 {
		cfg.DefaultPageLimit = 50
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := buildEvents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	index, err := buildSearchIndex(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		DB:          sqlDB,
		Store:       store,
		Events:      publisher,
		SearchIndex: index,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Health:            app.HealthService,
		UserHandler:       users.NewHandler(app.UsersService),
		DocumentHandler:   documents.NewHandler(app.DocumentsService),
		AssignmentHandler: assignments.NewHandler(app.AssignmentsService),
		AnnotationHandler: annotations.NewHandler(app.AnnotationsService),
		StatsHandler:      stats.NewHandler(app.StatsService),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_fallback", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	rt := db.RuntimeServer
	if cfg.Process != "" {
		rt = db.Runtime(cfg.Process)
	}
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.DetectRuntime(rt))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_fallback", map[string]any{
				"reason": "database connect failed",
				"error":  err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSearchIndex(cfg config.Config) (*search.Index, error) {
	if path := strings.TrimSpace(cfg.SearchIndexPath); path != "" {
		return search.Open(path)
	}
	return search.NewMemOnly()
}

func buildEvents(ctx context.Context, cfg config.Config) (events.Publisher, error) {
	if strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return events.Nop{}, nil
	}
	return events.NewSQSPublisher(ctx, cfg.AWSRegion, cfg.EventsQueueURL)
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.AnnotationsRepo = &annotations.PGRepo{DB: app.DB}
		app.StatsStore = &stats.PGStore{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.AnnotationsRepo = annotations.NewMemoryRepo()
		app.StatsStore = &stats.MemoryStore{
			Documents:   app.DocumentsRepo,
			Annotations: app.AnnotationsRepo,
			Users:       app.UsersRepo,
		}
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.DocumentsService = &documents.Service{
		Repo:        app.DocumentsRepo,
		Annotations: app.AnnotationsRepo,
		Users:       app.UsersService,
		Store:       app.Store,
		SearchIndex: app.SearchIndex,
		PageLimit:   app.Config.DefaultPageLimit,
	}
	app.AnnotationsService = &annotations.Service{
		Repo:      app.AnnotationsRepo,
		Documents: documentGateway{repo: app.DocumentsRepo},
		Events:    app.Events,
	}
	app.AssignmentsService = &assignments.Service{
		Documents: app.DocumentsRepo,
		Users:     app.UsersService,
		Events:    app.Events,
	}
	app.StatsService = &stats.Service{Store: app.StatsStore}
	app.HealthService = health.NewService(app.DB)

	indexed, err := app.DocumentsService.Reindex(ctx)
	if err != nil {
		// Search degrades to missing hits; the API still serves.
		telemetry.Warn("search.reindex_failed", map[string]any{"error": err.Error()})
	} else if indexed > 0 {
		telemetry.Info("search.reindexed", map[string]any{"documents": indexed})
	}
	return nil
}

// documentGateway exposes the documents store to the annotation flow.
type documentGateway struct {
	repo documents.Repo
}

func (g documentGateway) Lookup(ctx context.Context, documentID string) (annotations.DocumentRef, error) {
	doc, err := g.repo.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return annotations.DocumentRef{}, annotations.ErrDocumentNotFound
		}
		return annotations.DocumentRef{}, err
	}
	return annotations.DocumentRef{
		ID:         doc.ID,
		AssignedTo: doc.AssignedTo,
		Status:     doc.Status,
	}, nil
}

func (g documentGateway) SetStatus(ctx context.Context, documentID, status string) error {
	err := g.repo.SetStatus(ctx, documentID, status)
	if errors.Is(err, documents.ErrNotFound) {
		return annotations.ErrDocumentNotFound
	}
	return err
}
