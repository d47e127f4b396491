package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/samandr77/microservices/onboarding/pkg/broker"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=event_handler.go -destination=../../mocks/events.go -package=mocks

type Mailer interface {
	SendMessage(subject, message string, recipients []string, contentType string) error
}

// EventHandler delivers email events read from the notifications topic.
type EventHandler struct {
	mailer Mailer
}

func NewEventHandler(mailer Mailer) *EventHandler {
	return &EventHandler{mailer: mailer}
}

func (h *EventHandler) SendEmail(ctx context.Context, msg kafka.Message) error {
	var event broker.EmailEvent

	err := json.Unmarshal(msg.Value, &event)
	if err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	if event.Type != broker.EmailEventType {
		slog.WarnContext(ctx, "skip unknown notification event", "type", event.Type, "offset", msg.Offset)
		return nil
	}

	if len(event.Recipients) == 0 {
		slog.WarnContext(ctx, "skip email event without recipients", "offset", msg.Offset)
		return nil
	}

	err = h.mailer.SendMessage(event.Subject, event.Message, event.Recipients, "")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	slog.DebugContext(ctx, "email delivered", "recipients", len(event.Recipients))

	return nil
}
