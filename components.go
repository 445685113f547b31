package main

import (
	"errors"

	"fortio.org/log"
	"github.com/bwmarrin/discordgo"
	"myweb.bot/myweb-discord-bot/game"
)

// interactionUser is who triggered i, from Member in guilds or User in DMs.
func interactionUser(i *discordgo.Interaction) (userID, userName string) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, i.Member.User.Username
	}
	if i.User != nil {
		return i.User.ID, i.User.Username
	}
	return "", Unknown
}

func ephemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	content, _ = Truncate(content)
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Flags:           discordgo.MessageFlagsEphemeral,
			AllowedMentions: noMentions,
		},
	}
	err := s.InteractionRespond(i, resp)
	if err != nil {
		log.Errf("Error responding to interaction: %v", err)
	}
}

func errorReply(s *discordgo.Session, i *discordgo.InteractionCreate, userID, msg string) {
	log.S(log.Warning, msg, log.Any("author", userID))
	ephemeral(s, i.Interaction, "🔴 I'm sorry Dave. I'm afraid I can't do that.")
}

func processApplicationCommandInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	log.S(log.Info, "Processing application command interaction", log.Any("interaction", i))
	data := i.ApplicationCommandData()
	if data.CommandType != discordgo.MessageApplicationCommand {
		slashCmdInteraction(s, i)
		return
	}
	userID, _ := interactionUser(i.Interaction)
	resolved := data.Resolved
	if resolved == nil {
		errorReply(s, i, userID, "Resolved data is nil")
		return
	}
	msgs := resolved.Messages
	if len(msgs) != 1 {
		errorReply(s, i, userID, "Expected exactly one message")
		return
	}
	var msg *discordgo.Message
	for _, v := range msgs {
		msg = v
	}
	if !IsThisBot(msg.Author.ID) {
		errorReply(s, i, userID, "Expected message to be from the bot")
		return
	}
	if sess, found := games.ByMessage(msg.ID); found {
		// Deleting a live game's message ends the game, only its owner may.
		if err := sess.Stop(userID); errors.Is(err, game.ErrNotOwner) {
			errorReply(s, i, userID, "Delete of someone else's live game")
			return
		}
	}
	log.S(log.Warning, "command-delete", log.Any("user", userID), log.Any("message", msg.ID))
	err := s.ChannelMessageDelete(i.ChannelID, msg.ID)
	if err != nil {
		log.Errf("Error deleting message: %v", err)
	}
	ephemeral(s, i.Interaction, "✨ Poof! The message has vanished into the void.")
}

func interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type { //nolint:exhaustive // only these two are handled.
	case discordgo.InteractionApplicationCommand:
		processApplicationCommandInteraction(s, i)
	case discordgo.InteractionMessageComponent:
		handleControl(s, i)
	default:
		log.S(log.Info, "Ignoring interaction", log.Any("type", i.Type))
	}
}

// handleControl processes a game button press.
func handleControl(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	userID, userName := interactionUser(i.Interaction)
	log.S(log.Verbose, "control", log.String("id", customID), log.String("from", userName))
	sessionID, action, ok := parseControlID(customID)
	if !ok {
		log.S(log.Warning, "Ignoring unknown component", log.String("custom_id", customID))
		return
	}
	sess, found := games.Get(sessionID)
	if !found {
		ephemeral(s, i.Interaction, "🐍 This game is over, start a new one with `/snake`.")
		return
	}
	if msg := controlMessage(sess, userID, action); msg != "" {
		ephemeral(s, i.Interaction, msg)
		return
	}
	// The game message gets updated by the next tick.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Errf("Error acknowledging control: %v", err)
	}
}

// controlMessage applies action from userID to sess and returns the notice
// for the user, empty when the action was accepted.
func controlMessage(sess *game.Session, userID, action string) string {
	var err error
	if action == actionStop {
		err = sess.Stop(userID)
	} else {
		d, ok := game.ParseDirection(action)
		if !ok {
			log.S(log.Warning, "Unknown control action", log.String("action", action))
			return "🔴 Unknown control."
		}
		err = sess.SetDirection(userID, d)
	}
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrNotOwner):
		log.S(log.Info, "control from non owner", log.String("id", sess.ID()), log.String("user", userID))
		return "🔴 This is not your game, start your own with `/snake`."
	case errors.Is(err, game.ErrGameOver):
		return "🐍 This game is over, start a new one with `/snake`."
	default:
		return "🔴 " + err.Error()
	}
}
