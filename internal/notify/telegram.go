package notify

import (
	"encoding/json"
	"fmt"

	"clinicbook/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pushes booking lifecycle events to the clinic staff
// chat. Delivery is best effort; a lost notification never fails a
// booking.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(botToken string, chatIDs []int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:     bot,
		chatIDs: chatIDs,
		logger:  logger,
	}, nil
}

// SubscribeToEvents wires the notifier into the event bus.
func (n *TelegramNotifier) SubscribeToEvents(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.handleEvent)
	bus.Subscribe(events.EventBookingCancelled, n.handleEvent)
	bus.Subscribe(events.EventBookingRescheduled, n.handleEvent)
}

func (n *TelegramNotifier) handleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event", event.Type).Msg("failed to decode event payload")
		return err
	}

	n.broadcast(formatMessage(event.Type, payload))
	return nil
}

func (n *TelegramNotifier) broadcast(text string) {
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram notification")
		}
	}
}

func formatMessage(eventType string, p events.BookingEventPayload) string {
	switch eventType {
	case events.EventBookingCreated:
		return fmt.Sprintf("🩺 New booking #%d\n%s\n%s — %s\n%s <%s>",
			p.BookingID, p.BookingUID, p.Start, p.End, p.Name, p.Email)
	case events.EventBookingCancelled:
		return fmt.Sprintf("❌ Booking %s cancelled", p.BookingUID)
	case events.EventBookingRescheduled:
		return fmt.Sprintf("🔁 Booking %s rescheduled to %s (%s)", p.BookingUID, p.Start, p.Reason)
	default:
		return fmt.Sprintf("Booking event %s for %s", eventType, p.BookingUID)
	}
}
