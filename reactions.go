package main

import (
	"strings"

	"fortio.org/log"
	"github.com/bwmarrin/discordgo"
	"myweb.bot/myweb-discord-bot/game"
)

// Arrow reactions, without the emoji variation selector.
var reactionDirections = map[string]game.Direction{
	"⬆": game.Up,
	"⬇": game.Down,
	"⬅": game.Left,
	"➡": game.Right,
}

func reactionDirection(name string) (game.Direction, bool) {
	d, ok := reactionDirections[strings.TrimSuffix(name, "\ufe0f")]
	return d, ok
}

// This function will be called (due to AddHandler above) when a reaction is
// added to a message: arrows on a live game steer it, like the buttons.
func messageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if IsThisBot(r.UserID) {
		return
	}
	sess, found := games.ByMessage(r.MessageID)
	if !found {
		log.Debugf("Reaction not on a live game")
		return
	}
	d, ok := reactionDirection(r.Emoji.Name)
	if !ok {
		return
	}
	err := sess.SetDirection(r.UserID, d)
	log.S(log.Verbose, "reaction", log.String("id", sess.ID()), log.String("user", r.UserID),
		log.String("direction", d.String()), log.Any("err", err))
	// Remove it so the same arrow can be used again, needs the manage messages permission.
	err = s.MessageReactionRemove(r.ChannelID, r.MessageID, r.Emoji.APIName(), r.UserID)
	if err != nil {
		log.LogVf("Unable to remove reaction: %v", err)
	}
}
