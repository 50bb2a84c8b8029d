package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yegors/procroute/internal/config"
	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/refdata"
	"github.com/yegors/procroute/internal/route"
	"github.com/yegors/procroute/internal/routepoints"
	"github.com/yegors/procroute/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "procroute",
	Short: "Resolve and expand DP/STAR procedure tokens in flight routes",
	Long: `procroute canonicalizes departure procedure (DP) and arrival (STAR)
tokens in filed routes against reference tables, and expands them into
their route points.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $"+config.EnvConfigPath+" or config.toml)")
}

// app holds the components every command shares
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *procdb.Store
	source  refdata.Source
	loader  *refdata.Loader
	routes  *route.Service
	closeDB func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load(config.Path(configPath))
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, closeDB: func() error { return nil }}

	a.source, err = a.openSource()
	if err != nil {
		return nil, err
	}

	var points *routepoints.Set
	if cfg.RoutePoints.File != "" {
		points, err = routepoints.Load(cfg.RoutePoints.File)
		if err != nil {
			return nil, err
		}
		log.Info("Loaded route points",
			logger.String("file", cfg.RoutePoints.File),
			logger.Int("count", points.Count()),
		)
	}

	a.store = procdb.NewStore(log)
	a.loader = refdata.NewLoader(a.source, a.store, log)
	if points != nil {
		a.routes = route.NewService(a.store, points, log)
	} else {
		a.routes = route.NewService(a.store, nil, log)
	}
	return a, nil
}

func (a *app) openSource() (refdata.Source, error) {
	ref := a.cfg.Reference
	switch ref.Source {
	case config.SourceHTTP:
		return refdata.NewHTTPSource(ref.DPURL, ref.STARURL, ref.Timeout, ref.MaxRetries, a.log), nil
	case config.SourceSQLite:
		db, err := a.openSQLite()
		if err != nil {
			return nil, err
		}
		return refdata.NewSQLiteSource(db, ref.DPTable, ref.STARTable, a.log)
	default:
		return refdata.NewCSVSource(ref.DPPath, ref.STARPath), nil
	}
}

func (a *app) openSQLite() (*sql.DB, error) {
	db, err := refdata.OpenSQLite(a.cfg.Reference.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.closeDB = db.Close
	return db, nil
}

// load performs the initial reload. Failing families are logged and left
// empty, which still lets routes pass through unchanged.
func (a *app) load(ctx context.Context) {
	if _, err := a.loader.Reload(ctx); err != nil {
		a.log.Warn("Initial reference load incomplete", logger.Error(err))
	}
}

func (a *app) close() {
	if err := a.closeDB(); err != nil {
		a.log.Warn("Failed to close database", logger.Error(err))
	}
	_ = a.log.Sync()
}
