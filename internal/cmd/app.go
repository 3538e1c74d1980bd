package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/electisspace/spacectl/internal/aims"
	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/config"
	"github.com/electisspace/spacectl/internal/domain"
	"github.com/electisspace/spacectl/internal/guard"
	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/metrics"
	"github.com/electisspace/spacectl/internal/session"
	"github.com/electisspace/spacectl/internal/settings"
	"github.com/electisspace/spacectl/internal/token"
)

// app holds the wired-up client stack shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	metrics  *metrics.Metrics
	tokens   *token.Manager
	client   *api.Client
	settings *settings.Store
	aims     *aims.Connector
	session  *session.Store
	guard    *guard.Guard

	spaces     *domain.Spaces
	people     *domain.People
	conference *domain.Conference
	labels     *domain.Labels
}

// newApp builds the full client stack from config, flags, and the
// spacectl home directory.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagAPIURL != "" {
		cfg.API.URL = flagAPIURL
	}

	logCfg := log.Config{
		Level:  log.ParseLevel(cfg.Logging.Level),
		Format: log.ParseFormat(cfg.Logging.Format),
	}
	if flagDebug {
		logCfg = log.DebugConfig()
	}
	if logCfg.Output == nil {
		logCfg.Output = log.DefaultConfig().Output
	}
	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	tokens := token.NewManager()

	clientOpts := []api.Option{api.WithLogger(logger), api.WithMetrics(m)}
	if cfg.API.Timeout > 0 {
		jar, _ := cookiejar.New(nil)
		clientOpts = append(clientOpts, api.WithHTTPClient(&http.Client{
			Timeout: cfg.API.Timeout,
			Jar:     jar,
		}))
	}
	client := api.NewClient(cfg.API.URL, tokens, clientOpts...)

	settingsStore := settings.NewStore(client, logger)
	registry := domain.NewRegistry(logger)
	spaces := domain.NewSpaces(client, registry)
	people := domain.NewPeople(client, registry)
	conference := domain.NewConference(client, registry)
	labels := domain.NewLabels(client, registry)

	connector := aims.NewConnector(client, logger, m)

	sess := session.New(session.Config{
		Client:   client,
		Tokens:   tokens,
		Creds:    token.NewFileStore(dir),
		Settings: settingsStore,
		Siblings: registry,
		AIMS:     connector,
		State:    session.NewStateFile(dir),
		Logger:   logger,
		Metrics:  m,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		tokens:   tokens,
		client:   client,
		settings: settingsStore,
		aims:     connector,
		session:  sess,
		guard:    guard.New(sess, connector, logger),

		spaces:     spaces,
		people:     people,
		conference: conference,
		labels:     labels,
	}, nil
}

// restoreSession restores the persisted session and fails with a login
// hint when nothing can be restored.
func (a *app) restoreSession(ctx context.Context) error {
	if a.session.Restore(ctx) {
		return nil
	}
	return fmt.Errorf("not logged in (run 'spacectl auth login')")
}
