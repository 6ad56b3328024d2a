package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/org-chat/internal/core/events"
	"github.com/frahmantamala/org-chat/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus debugging commands",
	Long:  `Publish sample chat events to a local bus to inspect subscriber behavior`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample chat event",
	Long: `Publish a sample event to a local bus and log what a subscriber sees.
Defaults to ` + events.EventTypeMessageSent + `; chat.status.changed and
chat.activity are the other types the hub routes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eventType := events.EventTypeMessageSent
		if len(args) > 0 {
			eventType = args[0]
		}
		publishSampleEvent(eventType)
	},
}

var eventMessage string

func publishSampleEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("sample handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	sampleEvent := events.BaseEvent{
		ID:        fmt.Sprintf("sample-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"sender_id":   "cli-sender",
			"receiver_id": "cli-receiver",
			"message":     eventMessage,
		},
	}

	logger.Info("publishing sample event", "event_type", eventType, "event_id", sampleEvent.ID)

	ctx := context.Background()
	if err := eventBus.Publish(ctx, sampleEvent); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	time.Sleep(100 * time.Millisecond)
	logger.Info("sample event published successfully")
}

func init() {

	publishEventCmd.Flags().StringVar(&eventMessage, "message", "hello from the cli", "sample message body")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
