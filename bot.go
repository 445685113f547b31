package main

import (
	"context"
	"os"
	"strings"
	"time"
	"unicode"

	"fortio.org/cli"
	"fortio.org/duration"
	"fortio.org/log"
	"github.com/bwmarrin/discordgo"
	"myweb.bot/myweb-discord-bot/game"
)

var (
	BotToken string
	BotAdmin string
	// Live games.
	games        *Registry
	botStartTime time.Time
	selfID       string // This bot's user ID.
	// Cancelled on shutdown, parent of every game.
	botCtx    context.Context
	botCancel context.CancelFunc
)

const Unknown = "unknown"

func Run(maxLiveGames int) {
	botStartTime = time.Now()
	botCtx, botCancel = context.WithCancel(context.Background())
	games = NewRegistry(maxLiveGames)
	// create a session
	session, err := discordgo.New("Bot " + BotToken)
	if err != nil {
		log.Fatalf("Init discordgo.New error: %v", err)
	}
	session.StateEnabled = true
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	// add event handlers
	session.AddHandler(newMessage)
	session.AddHandler(interactionCreate)
	session.AddHandler(messageReactionAdd)

	// open session
	err = session.Open()
	if err != nil {
		log.Fatalf("Init discordgo.Open error: %v", err)
	}
	selfID = session.State.User.ID

	registerCommands(session)

	log.Infof("Bot is now running with board size %d, tick %s, idle %s, max games %d, BotAdmin=%s - Press CTRL-C or SIGTERM to exit.",
		*boardSize, *tick, *idle, maxLiveGames, BotAdmin)
	// keep bot running until there is NO os interruption (ctrl + C)
	cli.UntilInterrupted()
	n := games.CloseAll()
	botCancel()
	log.Infof("Stopped %d %s", n, cli.Plural(n, "game"))
	err = session.Close()
	if err != nil {
		log.Errf("Error closing session: %v", err)
	}
	log.Infof("Bot is now stopped and exiting.")
}

func IsThisBot(id string) bool {
	return id == selfID
}

func IsAdmin(userID string) bool {
	if BotAdmin == "" {
		return false
	}
	return BotAdmin == userID
}

// gameConfig is the session configuration from flags, size <= 0 uses the default.
func gameConfig(size int) game.Config {
	if size <= 0 {
		size = *boardSize
	}
	cfg := game.Config{
		BoardSize:    size,
		TickInterval: *tick,
		IdleTimeout:  *idle,
		Glyphs:       &game.DefaultGlyphs,
	}
	if *plainHead {
		cfg.Glyphs = &game.PlainGlyphs
	}
	return cfg
}

var snakePrefix = "!snake"

// hasSnakePrefix is true when content is the !snake command, alone or followed
// by arguments, but not for words like "!snakes".
func hasSnakePrefix(content string) bool {
	rest, found := strings.CutPrefix(content, snakePrefix)
	return found && (rest == "" || unicode.IsSpace(rune(rest[0])))
}

func UptimeString(startTime time.Time) string {
	return DurationString(time.Since(startTime))
}

// DurationString returns a human readable string for a duration.
// Expressed in weeks, days, hours, minutes, seconds and 10th of second.
// Units that are 0 are omitted.
func DurationString(d time.Duration) string {
	return duration.Duration(d.Round(100 * time.Millisecond)).String()
}

// Discord's limit - some margin for that adding we are truncating, in characters/runes.
const MaxMessageLengthInRunes = 2000 - 100

// Truncate shortens s to MaxMessageLengthInRunes runes if needed.
func Truncate(s string) (string, bool) {
	runes := []rune(s)
	if len(runes) <= MaxMessageLengthInRunes {
		return s, false
	}
	return string(runes[:MaxMessageLengthInRunes]) + "…", true
}

var noMentions = &discordgo.MessageAllowedMentions{
	Parse: []discordgo.AllowedMentionType{},
}

// CommandParams is where and for whom a command runs, from a message or an interaction.
type CommandParams struct {
	session   *discordgo.Session
	message   *discordgo.Message // Message being replied to, nil for interactions.
	channelID string             // shortcut for message.ChannelID or id for a DM.
	userID    string
	userName  string
	// Set for slash commands.
	interaction *discordgo.Interaction
	// useReply selects if we should use reply (in channel) or send (DMs).
	useReply bool
}

// reply sends response as a new message, as a reply when p.useReply.
func reply(session *discordgo.Session, response string, p *CommandParams) {
	response, truncated := Truncate(response)
	if truncated {
		log.S(log.Warning, "truncated response", log.Any("channel", p.channelID))
	}
	msg := &discordgo.MessageSend{
		Content:         response,
		AllowedMentions: noMentions,
	}
	if p.useReply && p.message != nil {
		msg.Reference = &discordgo.MessageReference{
			MessageID: p.message.ID,
			ChannelID: p.message.ChannelID,
			GuildID:   p.message.GuildID,
		}
	}
	_, err := session.ChannelMessageSendComplex(p.channelID, msg)
	if err != nil {
		log.S(log.Error, "reply error", log.Any("err", err))
	}
}

func newMessage(session *discordgo.Session, message *discordgo.MessageCreate) {
	log.S(log.Debug, "message", log.Any("message", message))
	// prevent bot responding to its own message
	if IsThisBot(message.Author.ID) {
		return
	}
	handleMessage(session, message.Message)
}

func tagToCmd(msg, id string) string {
	return strings.ReplaceAll(msg, "<@"+id+">", snakePrefix)
}

// channelNames is the server and channel names for logging.
func channelNames(session *discordgo.Session, guildID, channelID string) (serverName, channelName string) {
	if guildID == "" {
		return "DM", "DM"
	}
	// Is this cached/efficient to keep doing?
	channel, err := session.State.Channel(channelID)
	if err != nil {
		log.S(log.Error, "unable to get channel info", log.Any("err", err))
		channelName = Unknown
	} else {
		channelName = channel.Name
	}
	server, err := session.State.Guild(guildID)
	if err != nil {
		log.S(log.Error, "unable to get server info", log.Any("err", err))
		serverName = Unknown
	} else {
		serverName = server.Name
	}
	return serverName, channelName
}

func handleMessage(session *discordgo.Session, message *discordgo.Message) {
	isDM := message.GuildID == ""
	message.Content = strings.TrimSpace(tagToCmd(message.Content, selfID))
	info := "channel-message"
	if isDM {
		info = "direct-message"
		// No prefix needed in DMs.
		if !hasSnakePrefix(message.Content) {
			message.Content = snakePrefix + " " + message.Content
		}
	}
	if !hasSnakePrefix(message.Content) {
		return
	}
	if message.ReferencedMessage != nil && !isDM {
		log.S(log.Info, "Ignoring command in a reply", log.Any("ref", message.ReferencedMessage.ID))
		return
	}
	serverName, channelName := channelNames(session, message.GuildID, message.ChannelID)
	log.S(log.Info, info,
		log.Any("from", message.Author.Username),
		log.Any("server", serverName),
		log.Any("channel", channelName),
		log.Any("content", message.Content))
	if message.Author.Bot {
		log.S(log.Warning, "ignoring bot message", log.Any("message", message))
		return
	}
	p := &CommandParams{
		session:   session,
		message:   message,
		channelID: message.ChannelID,
		userID:    message.Author.ID,
		userName:  message.Author.Username,
		useReply:  !isDM,
	}
	cmd, err := ParseCommand(strings.TrimPrefix(message.Content, snakePrefix))
	if err != nil {
		respond(p, errorsBlock([]string{err.Error()}))
		return
	}
	route(cmd, p)
}

func scheduleReset(s *discordgo.Session) {
	go func() {
		n := games.CloseAll()
		log.Infof("Stopped %d %s before reset", n, cli.Plural(n, "game"))
		registeredCommands, err := s.ApplicationCommands(selfID, *guildID)
		if err != nil {
			log.Critf("Could not fetch registered commands: %v", err)
		}
		for _, v := range registeredCommands {
			err = s.ApplicationCommandDelete(selfID, *guildID, v.ID)
			if err != nil {
				log.Critf("Cannot delete '%v' command: %v", v.Name, err)
			}
		}
		delay := 3 * time.Second
		log.Infof("All %d commands deleted, waiting %s before resetting", len(registeredCommands), delay)
		time.Sleep(delay)
		log.Critf("Resetting bot now")
		// exit and get restarted by systemd.
		os.Exit(1)
	}()
}
