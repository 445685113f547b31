package main

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"myweb.bot/myweb-discord-bot/game"
)

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

// Discord sends integers as JSON numbers.
func intOption(name string, value float64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: value,
	}
}

func TestSlashCommand(t *testing.T) {
	cmd, err := slashCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, Command{Kind: CmdPlay}, cmd)

	cmd, err = slashCommand([]*discordgo.ApplicationCommandInteractionDataOption{intOption("size", 6)})
	require.NoError(t, err)
	assert.Equal(t, Command{Kind: CmdPlay, Size: 6}, cmd)

	cmd, err = slashCommand([]*discordgo.ApplicationCommandInteractionDataOption{stringOption("command", "stop")})
	require.NoError(t, err)
	assert.Equal(t, CmdStop, cmd.Kind)

	cmd, err = slashCommand([]*discordgo.ApplicationCommandInteractionDataOption{stringOption("command", "dance")})
	require.NoError(t, err)
	assert.Equal(t, CmdHelp, cmd.Kind)

	for _, size := range []float64{2, 13, -4} {
		_, err = slashCommand([]*discordgo.ApplicationCommandInteractionDataOption{intOption("size", size)})
		assert.ErrorIs(t, err, ErrBoardSize, "size %v", size)
	}
}

func TestCommandKindString(t *testing.T) {
	assert.Equal(t, "play", CmdPlay.String())
	assert.Equal(t, "reset", CmdReset.String())
	assert.Equal(t, Unknown, CommandKind(42).String())
	for kind, name := range commandNames {
		got, ok := lookupCommand(name)
		assert.True(t, ok)
		assert.Equal(t, kind, got)
	}
}

func TestTextResponse(t *testing.T) {
	games = NewRegistry(10)
	assert.Equal(t, "🎮 0 games running.", textResponse(CmdGames))
	assert.Equal(t, helpText, textResponse(CmdHelp))
	assert.Equal(t, helpText, textResponse(CmdPlay))
	assert.Contains(t, textResponse(CmdBug), "/issues")
	assert.Contains(t, textResponse(CmdVersion), "Uptime")
}

func TestErrorsBlock(t *testing.T) {
	assert.Equal(t, "```diff\n-\toops\n```", errorsBlock([]string{"oops"}))
	assert.Equal(t, "```diff\n-\tline 1\n-\tline 2\n```", errorsBlock([]string{"line 1\nline 2"}))
	res := errorsBlock([]string{"a", "b", "c", "d"})
	assert.True(t, strings.HasSuffix(res, "\n...2 more errors...\n```"), res)
}

func TestReactionDirection(t *testing.T) {
	tests := []struct {
		emoji string
		dir   game.Direction
	}{
		{"⬆️", game.Up},
		{"⬇️", game.Down},
		{"⬅", game.Left},
		{"➡️", game.Right},
	}
	for _, test := range tests {
		d, ok := reactionDirection(test.emoji)
		assert.True(t, ok, test.emoji)
		assert.Equal(t, test.dir, d, test.emoji)
	}
	_, ok := reactionDirection("🍎")
	assert.False(t, ok)
}

// The reaction arrows are the ones shown on the buttons.
func TestControlEmojisSteer(t *testing.T) {
	for _, b := range buttons(t, controls("s1", true)) {
		_, action, _ := parseControlID(b.CustomID)
		if action == actionStop {
			continue
		}
		d, ok := reactionDirection(b.Emoji.Name)
		require.True(t, ok, b.Emoji.Name)
		assert.Equal(t, action, d.String())
	}
}

func TestControlMessage(t *testing.T) {
	h := newOverHost()
	s := idleSession("u1", h)
	s.Start(context.Background())

	assert.Contains(t, controlMessage(s, "u2", "up"), "not your game")
	assert.Contains(t, controlMessage(s, "u2", actionStop), "not your game")
	assert.Contains(t, controlMessage(s, "u1", "sideways"), "Unknown control")
	assert.Empty(t, controlMessage(s, "u1", "up"))
	assert.True(t, s.Alive())

	assert.Empty(t, controlMessage(s, "u1", actionStop))
	assert.False(t, s.Alive())
	assert.Equal(t, game.ReasonStopped, <-h.over)
	assert.Contains(t, controlMessage(s, "u1", "left"), "game is over")
	assert.Contains(t, controlMessage(s, "u1", actionStop), "game is over")
}

func TestHasSnakePrefix(t *testing.T) {
	tests := []struct {
		content  string
		expected bool
	}{
		{"!snake", true},
		{"!snake play 5", true},
		{"!snake\tstop", true},
		{"!snake\nhelp", true},
		{"!snakes are cool", false},
		{"!snake5", false},
		{"snake", false},
		{"hello !snake", false},
		{"", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, hasSnakePrefix(test.content), "%q", test.content)
	}
}
