package tui

import (
	"context"

	"github.com/matheus3301/wachats/internal/bus"
	"github.com/matheus3301/wachats/internal/config"
	"github.com/matheus3301/wachats/internal/logging"
	"github.com/matheus3301/wachats/internal/outbox"
	"github.com/matheus3301/wachats/internal/profile"
	"github.com/matheus3301/wachats/internal/status"
	"github.com/matheus3301/wachats/internal/tui/client"
	"github.com/matheus3301/wachats/internal/tui/model"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	Settings    config.Profile
	Debug       bool
	LogPath     string // optional override for testing; empty = use default
}

// Module returns the fx module for the TUI, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("tui",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideClient,
			provideSender,
			provideConversations,
			provideThread,
			model.NewViewModel,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

// WithLogger routes fx's own events to the profile log instead of stderr.
func WithLogger() fx.Option {
	return fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger.Named("fx")}
	})
}

func provideLogger(p Params) (*zap.Logger, error) {
	path := p.LogPath
	if path == "" {
		if err := profile.EnsureDir(p.ProfileName); err != nil {
			return nil, err
		}
		path = profile.LogPath(p.ProfileName)
	}
	return logging.New(path, p.ProfileName, logging.Options{Debug: p.Debug})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideClient(p Params, logger *zap.Logger) (*client.Client, error) {
	return client.New(client.Options{
		BaseURL: p.Settings.ServerURL,
		Token:   p.Settings.Token,
		Timeout: p.Settings.RequestTimeout.Duration,
		Logger:  logger.Named("http"),
	})
}

func provideSender(c *client.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(c, b, logger)
}

func provideConversations(c *client.Client, m *status.Machine, b *bus.Bus, logger *zap.Logger) *model.Conversations {
	return model.NewConversations(c, m, b, logger)
}

func provideThread(c *client.Client, m *status.Machine, b *bus.Bus, logger *zap.Logger) *model.Thread {
	return model.NewThread(c, m, b, logger)
}

func provideApp(p Params, c *client.Client, vm *model.ViewModel, sender *outbox.Sender, m *status.Machine, b *bus.Bus, logger *zap.Logger) *App {
	return NewApp(AppParams{
		Profile:      p.ProfileName,
		PollInterval: p.Settings.PollInterval.Duration,
		Client:       c,
		ViewModel:    vm,
		Sender:       sender,
		Machine:      m,
		Bus:          b,
		Logger:       logger,
	})
}

func registerLifecycle(lc fx.Lifecycle, app *App, b *bus.Bus, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			app.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			app.Shutdown()
			b.Close()
			logger.Info("tui stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
