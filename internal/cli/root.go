package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/dealboard/internal/board"
	"github.com/alexanderramin/dealboard/internal/config"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/logging"
	"github.com/alexanderramin/dealboard/internal/remote"
	"github.com/alexanderramin/dealboard/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// remoteTokenTTL is the lifetime of tokens minted from jwt_secret.
const remoteTokenTTL = time.Hour

// PipelineReader is the read side of the pipeline service; a remote client
// provides it too.
type PipelineReader interface {
	GetByID(ctx context.Context, id string) (*domain.Pipeline, error)
	List(ctx context.Context) ([]*domain.Pipeline, error)
}

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Pipelines service.PipelineService
	Deals     service.DealService
	Contacts  service.ContactService
	Import    service.ImportService

	// Store and Stages are what boards read and dispatch against. They
	// default to the local services and switch to the API with --remote.
	Store       board.DealStore
	Stages      PipelineReader
	Invalidator board.Invalidator

	Logger logrus.FieldLogger
	Config config.Config
	Viper  *viper.Viper

	// Open wires the local services once config is resolved. It returns a
	// closer for whatever it opened.
	Open func(cfg config.Config, logger logrus.FieldLogger) (func() error, error)

	IsInteractive func() bool

	closer func() error
}

// NewRootCmd creates the top-level "dealboard" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "dealboard",
		Short:         "Kanban board for CRM deals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.prepare(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
	}

	d := config.Default()
	pf := root.PersistentFlags()
	pf.String("db", d.DB, "Path to the local deal store")
	pf.String("remote", "", "Base URL of a dealboard API server")
	pf.String("token", "", "Bearer token for --remote")
	pf.String("jwt-secret", "", "Shared secret used to sign API tokens")
	pf.String("redis-url", "", "Redis URL for the deal listing cache")
	pf.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	pf.Duration("frame", d.Frame, "Board notification frame")
	pf.Int("dispatch-limit", d.DispatchLimit, "Maximum concurrent deal updates")

	root.AddCommand(
		newPipelineCmd(app),
		newDealCmd(app),
		newBoardCmd(app),
		newImportCmd(app),
		newServeCmd(app),
	)

	return root
}

// prepare resolves config and fills in whatever the caller left unset.
func (a *App) prepare(cmd *cobra.Command) error {
	if a.Viper == nil {
		a.Viper = config.New("")
	}
	if err := config.BindFlags(a.Viper, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.Viper)
	if err != nil {
		return err
	}
	a.Config = cfg

	if a.Logger == nil {
		logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		a.Logger = logger
	}

	// Remote mode never touches the local store; local-only commands refuse
	// through requireLocal before reaching the services.
	if a.Open != nil && a.Deals == nil && cfg.Remote == "" {
		closer, err := a.Open(cfg, a.Logger)
		if err != nil {
			return err
		}
		a.closer = closer
	}

	if cfg.Remote != "" {
		token := cfg.Token
		if token == "" && cfg.JWTSecret != "" {
			if token, err = remote.SignToken(cfg.JWTSecret, "dealboard-cli", remoteTokenTTL); err != nil {
				return fmt.Errorf("signing token: %w", err)
			}
		}
		client := remote.New(cfg.Remote, token)
		a.Store = client
		a.Stages = client.Pipelines()
		a.Invalidator = nil
		a.Logger.WithField("remote", cfg.Remote).Debug("using remote store")
	}
	if a.Store == nil && a.Deals != nil {
		a.Store = a.Deals
	}
	if a.Stages == nil && a.Pipelines != nil {
		a.Stages = a.Pipelines
	}
	return nil
}

func (a *App) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer()
	a.closer = nil
	return err
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// newBoard builds a board for p with the configured frame and limits.
func (a *App) newBoard(p *domain.Pipeline) *board.Board {
	opts := []board.Option{
		board.WithLogger(a.Logger),
		board.WithFrame(a.Config.Frame),
		board.WithDispatchConcurrency(a.Config.DispatchLimit),
	}
	if a.Invalidator != nil {
		opts = append(opts, board.WithInvalidator(a.Invalidator))
	}
	return board.New(p, a.Store, opts...)
}

func (a *App) requireLocal(what string) error {
	if a.Config.Remote != "" {
		return fmt.Errorf("%s works on the local store only; drop --remote", what)
	}
	return nil
}
