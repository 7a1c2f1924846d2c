package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/dealboard/internal/cache"
	"github.com/alexanderramin/dealboard/internal/cli"
	"github.com/alexanderramin/dealboard/internal/config"
	"github.com/alexanderramin/dealboard/internal/db"
	"github.com/alexanderramin/dealboard/internal/repository"
	"github.com/alexanderramin/dealboard/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{}
	app.Open = func(cfg config.Config, logger logrus.FieldLogger) (func() error, error) {
		return wire(app, cfg, logger)
	}

	// Detect interactive terminal for the board TUI and the deal form.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

// wire opens the local store and fills in the app's services. With a Redis
// URL configured, boards read deal listings through the cache.
func wire(app *cli.App, cfg config.Config, logger logrus.FieldLogger) (func() error, error) {
	database, err := db.OpenDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pipelineRepo := repository.NewSQLitePipelineRepo(database)
	dealRepo := repository.NewSQLiteDealRepo(database)
	contactRepo := repository.NewSQLiteContactRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	observer := service.NewLogUseCaseObserver(logger)

	app.Pipelines = service.NewPipelineService(pipelineRepo, uow, observer)
	app.Deals = service.NewDealService(dealRepo, pipelineRepo, contactRepo, uow, observer)
	app.Contacts = service.NewContactService(contactRepo)
	app.Import = service.NewImportService(uow, observer)

	closers := []func() error{database.Close}

	if cfg.RedisURL != "" && cfg.Remote == "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		rc := redis.NewClient(opts)
		dealCache := cache.New(app.Deals, rc, cfg.CacheTTL, logger)
		app.Store = dealCache
		app.Invalidator = dealCache
		closers = append([]func() error{rc.Close}, closers...)
	}

	return func() error {
		var first error
		for _, c := range closers {
			if err := c(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}, nil
}
