package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fortio.org/log"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
	"myweb.bot/myweb-discord-bot/game"
)

// createFunc posts the first frame of a game and returns the new message.
type createFunc func(content string, components []discordgo.MessageComponent) (*discordgo.Message, error)

// messageEditor is the part of *discordgo.Session used to update a game message.
type messageEditor interface {
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type frame struct {
	content  string
	controls bool
	final    bool
}

// messageHost shows one game in one Discord message. The game calls Render
// and GameOver from its goroutine; delivery happens on a separate sender
// goroutine so slow or failing Discord calls never hold up the game. Only
// the latest pending frame is kept.
type messageHost struct {
	editor    messageEditor
	create    createFunc
	onCreated func(msg *discordgo.Message)
	owner     string
	sessionID string
	limiter   *rate.Limiter

	frames    chan frame
	startOnce sync.Once
	done      chan struct{} // closed when the sender exits
	lastBoard string        // only used by the game goroutine

	// Only used by the sender goroutine.
	channelID string
	messageID string
	broken    bool
}

func newMessageHost(editor messageEditor, create createFunc, owner string, minInterval time.Duration) *messageHost {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &messageHost{
		editor:  editor,
		create:  create,
		owner:   owner,
		limiter: rate.NewLimiter(limit, 1),
		frames:  make(chan frame, 1),
		done:    make(chan struct{}),
	}
}

func (h *messageHost) header() string {
	return "🐍 **Snake** game of <@" + h.owner + ">\n"
}

func (h *messageHost) Render(board string, controlsEnabled bool) {
	h.lastBoard = board
	h.push(frame{content: h.header() + board, controls: controlsEnabled})
}

func (h *messageHost) GameOver(reason game.Reason, finalLength int) {
	h.push(frame{
		content: h.header() + h.lastBoard + "\n" + gameOverText(reason, finalLength),
		final:   true,
	})
}

func gameOverText(reason game.Reason, finalLength int) string {
	switch reason {
	case game.ReasonCollision:
		return fmt.Sprintf("💥 **Game over!** Final length: %d", finalLength)
	case game.ReasonInactivity:
		return fmt.Sprintf("💤 Game ended due to inactivity. Final length: %d", finalLength)
	default:
		return fmt.Sprintf("🛑 Game stopped. Final length: %d", finalLength)
	}
}

// push queues f, replacing a frame that was not sent yet.
func (h *messageHost) push(f frame) {
	h.startOnce.Do(func() { go h.send() })
	for {
		select {
		case h.frames <- f:
			return
		default:
		}
		select {
		case old := <-h.frames:
			log.LogVf("Game %s: dropping unsent frame (final %t)", h.sessionID, old.final)
		default:
		}
	}
}

func (h *messageHost) send() {
	defer close(h.done)
	for f := range h.frames {
		// Wait only errors when the burst is 0 or the context ends, neither happens here.
		_ = h.limiter.Wait(context.Background())
		h.deliver(f)
		if f.final {
			return
		}
	}
}

func (h *messageHost) deliver(f frame) {
	if h.broken {
		return
	}
	content, _ := Truncate(f.content)
	components := controls(h.sessionID, f.controls)
	if h.messageID == "" {
		msg, err := h.create(content, components)
		if err != nil {
			log.S(log.Error, "unable to post game", log.String("id", h.sessionID), log.Any("err", err))
			h.broken = true
			return
		}
		h.channelID = msg.ChannelID
		h.messageID = msg.ID
		if h.onCreated != nil {
			h.onCreated(msg)
		}
		return
	}
	_, err := h.editor.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:              h.messageID,
		Channel:         h.channelID,
		Content:         &content,
		Components:      &components,
		AllowedMentions: noMentions,
	})
	if err != nil {
		// Most likely the message was deleted, the game goes on until it ends by itself.
		log.S(log.Error, "game edit-error", log.String("id", h.sessionID), log.Any("err", err))
	}
}

const controlPrefix = "snake"

// Control actions besides the directions.
const actionStop = "stop"

var controlEmojis = []struct {
	action string
	emoji  string
}{
	{game.Left.String(), "⬅️"},
	{game.Up.String(), "⬆️"},
	{game.Down.String(), "⬇️"},
	{game.Right.String(), "➡️"},
	{actionStop, "🛑"},
}

func controlID(sessionID, action string) string {
	return controlPrefix + ":" + sessionID + ":" + action
}

// parseControlID is the reverse of controlID.
func parseControlID(customID string) (sessionID, action string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != controlPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// controls is the row of game buttons, disabled once the game is over.
func controls(sessionID string, enabled bool) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(controlEmojis))
	for _, c := range controlEmojis {
		style := discordgo.SecondaryButton
		if c.action == actionStop {
			style = discordgo.DangerButton
		}
		buttons = append(buttons, &discordgo.Button{
			Style:    style,
			Emoji:    &discordgo.ComponentEmoji{Name: c.emoji},
			CustomID: controlID(sessionID, c.action),
			Disabled: !enabled,
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}
