package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/stay-search-backend/internal/api"
	"github.com/nekogravitycat/stay-search-backend/internal/config"
	"github.com/nekogravitycat/stay-search-backend/internal/listing"
	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
	"github.com/nekogravitycat/stay-search-backend/internal/search"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *logrus.Logger
	Search       config.SearchConfig
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router   *gin.Engine
	Search   search.Service
	Sessions *search.Registry
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Repositories
	listingRepo := listing.NewPgxRepository(cfg.DBPool)
	occupancyRepo := occupancy.NewPgxRepository(cfg.DBPool)

	// Search Module
	searchService := search.NewService(listingRepo, occupancyRepo, search.Options{
		BatchSize:        cfg.Search.BatchSize,
		OccupancyTimeout: cfg.Search.OccupancyTimeout,
		DayPriceMax:      cfg.Search.DayPriceMax,
		MonthPriceMax:    cfg.Search.MonthPriceMax,
	}, cfg.Logger)
	sessions := search.NewRegistry(searchService, cfg.Search.Debounce, cfg.Search.SessionTTL, cfg.Search.MaxSessions, cfg.Logger)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:  cfg.IsProduction,
		ProdOrigins:   cfg.ProdOrigins,
		Logger:        cfg.Logger,
		HealthCheck:   cfg.DBPool.Ping,
		SearchService: searchService,
		Sessions:      sessions,
	})

	return &Container{
		Router:   router,
		Search:   searchService,
		Sessions: sessions,
	}
}
