package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/campus-hub/campus-events-api/internal/models"
)

type Notifier interface {
	NotifyRegistration(user models.User, event models.Event, registration models.Registration) error
	NotifyPromotion(event models.Event, registration models.Registration) error
	NotifyCancellation(user models.User, event models.Event) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}
	return nil
}

func (n *DiscordNotifier) NotifyRegistration(user models.User, event models.Event, registration models.Registration) error {
	status := "registered 🎟️"
	if registration.Status == models.StatusWaitlisted {
		status = "waitlisted ⏳"
	}

	message := fmt.Sprintf("🎉 **Registration**\n**User:** %s\n**Event:** %s (%s)\n**Status:** %s\n**Seats:** %d/%d",
		user.Name,
		event.Title,
		event.Date.Format("2006-01-02"),
		status,
		event.RegisteredCount,
		event.Capacity,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyPromotion(event models.Event, registration models.Registration) error {
	message := fmt.Sprintf("⬆️ **Waitlist promotion**\n**Event:** %s\nRegistration %s moved from the waitlist into a seat.",
		event.Title,
		registration.ConfirmationCode,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyCancellation(user models.User, event models.Event) error {
	message := fmt.Sprintf("❌ **Cancellation**\n**User:** %s\n**Event:** %s",
		user.Name,
		event.Title,
	)
	return n.send(message)
}
