package cli

import (
	"github.com/bubblecloud/bubblecloud-tray/internal/browser"
	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
	"github.com/bubblecloud/bubblecloud-tray/internal/dialogs"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	inthttp "github.com/bubblecloud/bubblecloud-tray/internal/http"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
	"github.com/bubblecloud/bubblecloud-tray/internal/session"
	"github.com/bubblecloud/bubblecloud-tray/internal/transfer"
)

// services holds the objects shared by the tray and the CLI commands.
type services struct {
	store    *config.Store
	bus      *events.EventBus
	launcher *browser.Launcher
	session  *session.Manager
	client   *dashboard.Client
	actions  *transfer.Actions
	logger   *logging.Logger
}

// newServices opens the config store and wires the session, dashboard
// client and actions. dlg may be nil when no action needs dialogs.
func newServices(dlg dialogs.Dialogs) *services {
	log := GetLogger()
	store := config.Open(configPath(), log.Zerolog())
	bus := events.NewEventBus(0)
	launcher := browser.NewLauncher(config.BrowserProfileDirectory(), log.Child("component", "browser"))
	sess := session.NewManager(store, launcher, bus, log.Child("component", "session"))
	client := dashboard.NewClient(store, inthttp.NewClient(log), log.Child("component", "dashboard"))
	actions := transfer.NewActions(sess, client, launcher, dlg, bus, log.Child("component", "transfer"))

	log.Debug().Str("config", store.Path()).Msg("Services ready")

	return &services{
		store:    store,
		bus:      bus,
		launcher: launcher,
		session:  sess,
		client:   client,
		actions:  actions,
		logger:   log,
	}
}

// Close releases the event bus.
func (s *services) Close() {
	if dropped := s.bus.GetDroppedEventCount(); dropped > 0 {
		s.logger.Debug().Int64("dropped", dropped).Msg("Event bus dropped events")
	}
	s.bus.Close()
}
