package notifier

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/ratwatch/sighting-api/internal/engine"
	"github.com/ratwatch/sighting-api/internal/models"
	"github.com/stretchr/testify/assert"
)

var _ engine.Notifier = (*DiscordNotifier)(nil)

func TestDiscordNotifier_RequiresSessionAndChannel(t *testing.T) {
	user := models.User{Username: "alice", Points: 120}
	ach := models.Achievement{Name: "First Sighting", Points: 10}

	n := NewDiscordNotifier(nil, "123", nil)
	assert.EqualError(t, n.NotifyAchievement(user, ach), "discord session is nil")

	n = NewDiscordNotifier(&discordgo.Session{}, "", nil)
	assert.EqualError(t, n.NotifyRankUp(user, models.RankNovice, models.RankScout), "discord channel ID is empty")
}

func TestMessages(t *testing.T) {
	user := models.User{Username: "alice", Points: 120}

	msg := AchievementMessage(user, models.Achievement{Name: "Early Bird", Points: 20, Icon: "🌅", Description: "Report before 7 AM"})
	assert.Contains(t, msg, "🌅 **Achievement Unlocked**")
	assert.Contains(t, msg, "Early Bird (+20 points)")
	assert.Contains(t, msg, "alice")

	assert.Contains(t, AchievementMessage(user, models.Achievement{Name: "X"}), "🏆")

	msg = RankUpMessage(user, models.RankNovice, models.RankScout)
	assert.Contains(t, msg, "Rat Spotter → Rat Scout")
	assert.Contains(t, msg, "**Points:** 120")
}
