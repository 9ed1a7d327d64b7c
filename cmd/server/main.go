package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/engrest/internal/config"
	"github.com/rpattn/engrest/internal/db"
	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/export"
	"github.com/rpattn/engrest/internal/filter"
	"github.com/rpattn/engrest/internal/ingestion"
	"github.com/rpattn/engrest/internal/middleware"
	"github.com/rpattn/engrest/internal/pagination"
	"github.com/rpattn/engrest/internal/repository"
	"github.com/rpattn/engrest/internal/rest"
	"github.com/rpattn/engrest/internal/serializer"
	"github.com/rpattn/engrest/internal/viewset"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.DB.URL(), cfg.Server.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	orgRepo := repository.NewOrganizationRepository(conn.Pool)
	schemaRepo := repository.NewEntitySchemaRepository(conn.Pool)
	entityRepo := repository.NewEntityRepository(conn.Pool)

	renderer := &viewset.Renderer{
		Paginator: pagination.NewLimitOffset(cfg.Server.DefaultPageSize, cfg.Server.MaxPageSize),
	}

	// The asset endpoint carries the full action surface: per-action
	// serializers, a list-only property filter on top of the shared base
	// filter, wildcard ordering resolved against the live schema, and an
	// opt-in child count annotation.
	assets := &rest.EntityResource{
		Endpoint: &viewset.Endpoint{
			Name:    "assets",
			Actions: viewset.CRUDActions(),
			Serializers: map[viewset.Action]viewset.Serializer{
				viewset.ActionList:     serializer.NewSummary(),
				viewset.ActionRetrieve: serializer.NewDetail(schemaRepo),
				viewset.ActionCreate:   serializer.NewDetail(schemaRepo),
				viewset.ActionUpdate:   serializer.NewDetail(schemaRepo),
				viewset.ActionDestroy:  serializer.NewSummary(),
			},
			FilterSets: map[viewset.Action]viewset.FilterSet{
				viewset.ActionList: filter.Default().
					With("property", filter.Property()).
					With("path_prefix", filter.PathPrefix()).
					With("created_after", filter.CreatedAfter()).
					With("created_before", filter.CreatedBefore()),
			},
			FilterSet: filter.Default(),
			OrderingFields: map[viewset.Action]viewset.FieldSpec{
				viewset.ActionList: viewset.AllFields(),
			},
			Ordering: map[viewset.Action][]domain.OrderingKey{
				viewset.ActionList: viewset.OrderBy("-created_at"),
			},
			BaseOrdering: viewset.OrderBy("path"),
		},
		SchemaName: "asset",
		EntityType: "asset",
		Entities:   entityRepo,
		Schemas:    schemaRepo,
		Renderer:   renderer,
		Annotate: func(r *http.Request) []domain.Annotation {
			if r.URL.Query().Get("include") == "child_count" {
				return []domain.Annotation{repository.ChildCountAnnotation()}
			}
			return nil
		},
	}

	// Read-only catalog of reference documents: no mutations, a fixed
	// projection and a static ordering whitelist.
	documents := &rest.EntityResource{
		Endpoint: &viewset.Endpoint{
			Name:    "documents",
			Actions: viewset.ReadOnlyActions(),
			Serializers: map[viewset.Action]viewset.Serializer{
				viewset.ActionList:     serializer.NewSummary("title", "revision"),
				viewset.ActionRetrieve: serializer.NewDetail(schemaRepo),
			},
			FilterSet: filter.Default(),
			BaseOrderingFields: viewset.Fields(
				viewset.Field("created_at"),
				viewset.Labeled("title", "Title"),
			),
			BaseOrdering: viewset.OrderBy("title"),
		},
		SchemaName: "document",
		EntityType: "document",
		Entities:   entityRepo,
		Schemas:    schemaRepo,
		Renderer:   renderer,
	}

	ingestSvc := ingestion.NewService(schemaRepo, entityRepo)
	exportSvc := export.NewService(schemaRepo, entityRepo)

	mux := http.NewServeMux()
	mux.Handle("/api/assets", assets)
	mux.Handle("/api/assets/", assets)
	mux.Handle("/api/documents", documents)
	mux.Handle("/api/documents/", documents)
	mux.Handle("/api/organizations", &rest.OrganizationHandler{Organizations: orgRepo})
	mux.Handle("/api/schemas", &rest.SchemaHandler{Schemas: schemaRepo})
	mux.Handle("/api/ingest", ingestion.NewHTTPHandler(ingestSvc))
	mux.Handle("/api/export", export.NewHTTPHandler(exportSvc))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := middleware.LoggingMiddleware(
		corsHandler.Handler(
			middleware.OrganizationMiddleware(
				middleware.DataLoaderMiddleware(entityRepo)(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting REST server on :%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
