// siteops applies one administrative operation to every site endpoint in a
// list, sequentially, riding out remote throttling with backoff.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/andrej220/siteops/internal/admin"
	"github.com/andrej220/siteops/internal/batch"
	"github.com/andrej220/siteops/internal/report"
	"github.com/andrej220/siteops/internal/sitelist"
	"github.com/andrej220/siteops/pkg/config"
	"github.com/andrej220/siteops/pkg/lg"
)

const serviceName = "siteops"

func main() {
	fs := flag.NewFlagSet(serviceName, flag.ExitOnError)
	var sf storeFlags
	sf.register(fs)
	sitesPath := fs.String("sites", "", "override the site list path from the configuration")
	logCfg := lg.NewConfigFromFlags(fs, serviceName)
	fs.Parse(os.Args[1:])

	logger := lg.New(logCfg)
	defer logger.Sync()

	if err := run(sf, *sitesPath, logger); err != nil {
		logger.Error("fatal error", lg.Err(err))
		os.Exit(1)
	}
}

// storeFlags selects the configuration backend on the command line.
type storeFlags struct {
	backend    string
	configPath string
	mongoURI   string
	mongoDB    string
	mongoColl  string
	mongoID    string
}

func (s *storeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.backend, "config-store", "file", "configuration backend: file or mongo")
	fs.StringVar(&s.configPath, "config", "siteops.yaml", "path to the runner configuration (file backend)")
	fs.StringVar(&s.mongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI (mongo backend)")
	fs.StringVar(&s.mongoDB, "mongo-db", serviceName, "MongoDB database name (mongo backend)")
	fs.StringVar(&s.mongoColl, "mongo-coll", "configs", "MongoDB collection name (mongo backend)")
	fs.StringVar(&s.mongoID, "mongo-id", serviceName, "MongoDB configuration document id (mongo backend)")
}

func newConfigStore(sf storeFlags) (config.Store, error) {
	switch sf.backend {
	case "file":
		return config.NewStore(config.FileStore, &config.FileConfig{Path: sf.configPath})
	case "mongo":
		return config.NewStore(config.MongoStore, &config.MongoConfig{
			URI:      sf.mongoURI,
			DBName:   sf.mongoDB,
			CollName: sf.mongoColl,
			ID:       sf.mongoID,
		})
	default:
		return nil, fmt.Errorf("unknown config store %q (want file or mongo)", sf.backend)
	}
}

func run(sf storeFlags, sitesOverride string, logger lg.Logger) error {
	store, err := newConfigStore(sf)
	if err != nil {
		return err
	}
	cfg, err := config.LoadRunner(store)
	if err != nil {
		return err
	}
	if sitesOverride != "" {
		cfg.Sites.ListPath = sitesOverride
	}

	// an unreadable site list is the only process-fatal condition
	sites, err := sitelist.Load(cfg.Sites.ListPath)
	if err != nil {
		return err
	}
	logger.Info("site list loaded",
		lg.String("path", cfg.Sites.ListPath),
		lg.Int("sites", len(sites)))

	app, err := newApp(cfg, sites, logger)
	if err != nil {
		return err
	}
	defer app.close()

	ctx := lg.Attach(context.Background(), logger)
	return app.menuLoop(ctx, os.Stdin, os.Stdout)
}

type app struct {
	cfg      config.Runner
	sites    []string
	logger   lg.Logger
	conn     *admin.Connector
	executor *batch.Executor[*admin.Session]
	sink     report.Sink
}

func newApp(cfg config.Runner, sites []string, logger lg.Logger) (*app, error) {
	executor := batch.NewExecutor[*admin.Session](logger)
	executor.MaxRetries = cfg.Retry.MaxRetries
	executor.InitialBackoff = cfg.InitialBackoff()

	creds := admin.Credentials{
		ClientID:     cfg.Admin.ClientID,
		ClientSecret: cfg.Admin.ClientSecret,
	}

	var sinks []report.Sink
	if cfg.Report.LogPath != "" {
		fileSink, err := report.NewFileSink(cfg.Report.LogPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fileSink)
	}
	if cfg.Report.Kafka.Enabled {
		sinks = append(sinks, report.NewKafkaSink(cfg.Report.Kafka.Brokers, cfg.Report.Kafka.Topic))
	}

	return &app{
		cfg:      cfg,
		sites:    sites,
		logger:   logger,
		conn:     admin.NewConnector(creds, logger),
		executor: executor,
		sink:     report.NewMultiSink(sinks...),
	}, nil
}

func (a *app) close() {
	if err := a.sink.Close(); err != nil {
		a.logger.Warn("closing report sinks", lg.Err(err))
	}
}

func (a *app) policy() admin.SitePolicy {
	return admin.SitePolicy{
		SharingCapability:        a.cfg.Policy.SharingCapability,
		DenyAddAndCustomizePages: a.cfg.Policy.DenyAddAndCustomizePages,
		StorageQuotaMB:           a.cfg.Policy.StorageQuotaMB,
	}
}
