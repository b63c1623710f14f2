package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
)

// DiscordNotifier announces achievements and rank changes in a channel.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
	log       *logger.Logger
}

func NewDiscordNotifier(session *discordgo.Session, channelID string, baseLog *logger.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
		log:       logger.OrNop(baseLog).With("component", "discord"),
	}
}

func (n *DiscordNotifier) NotifyAchievement(user models.User, achievement models.Achievement) error {
	return n.send(AchievementMessage(user, achievement))
}

func (n *DiscordNotifier) NotifyRankUp(user models.User, from, to models.Rank) error {
	return n.send(RankUpMessage(user, from, to))
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		n.log.Error("failed to send discord message", "channel_id", n.channelID, "error", err)
		return err
	}
	return nil
}

func AchievementMessage(user models.User, achievement models.Achievement) string {
	icon := achievement.Icon
	if icon == "" {
		icon = "🏆"
	}
	return fmt.Sprintf("%s **Achievement Unlocked**\n**User:** %s\n**Achievement:** %s (+%d points)\n%s",
		icon,
		user.Username,
		achievement.Name,
		achievement.Points,
		achievement.Description,
	)
}

func RankUpMessage(user models.User, from, to models.Rank) string {
	return fmt.Sprintf("🐀 **Rank Up**\n**User:** %s\n**Rank:** %s → %s\n**Points:** %d",
		user.Username,
		from.Title(),
		to.Title(),
		user.Points,
	)
}
