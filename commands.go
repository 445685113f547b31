package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/cli"
	"fortio.org/log"
	"fortio.org/safecast"
	"fortio.org/version"
	"github.com/bwmarrin/discordgo"
	"myweb.bot/myweb-discord-bot/game"
)

// CommandKind is the closed set of things the bot knows how to do.
type CommandKind int

const (
	CmdHelp CommandKind = iota
	CmdSource
	CmdVersion
	CmdBuildInfo
	CmdBug
	CmdPlay
	CmdStop
	CmdGames
	CmdReset
)

var commandNames = map[CommandKind]string{
	CmdHelp:      "help",
	CmdSource:    "source",
	CmdVersion:   "version",
	CmdBuildInfo: "buildinfo",
	CmdBug:       "bug",
	CmdPlay:      "play",
	CmdStop:      "stop",
	CmdGames:     "games",
	CmdReset:     "reset",
}

func (c CommandKind) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return Unknown
}

// Words accepted for each command, besides its name.
var commandAliases = map[string]CommandKind{
	"start":     CmdPlay,
	"-h":        CmdHelp,
	"--help":    CmdHelp,
	"-help":     CmdHelp,
	"uptime":    CmdVersion,
	"--version": CmdVersion,
	"-version":  CmdVersion,
	"end":       CmdStop,
	"quit":      CmdStop,
}

const (
	minBoardSize = 3
	maxBoardSize = 12
)

var ErrBoardSize = fmt.Errorf("board size must be between %d and %d", minBoardSize, maxBoardSize)

// Command is a parsed invocation.
type Command struct {
	Kind CommandKind
	// Board size for CmdPlay, 0 for the default.
	Size int
}

func lookupCommand(word string) (CommandKind, bool) {
	if kind, ok := commandAliases[word]; ok {
		return kind, true
	}
	for kind, name := range commandNames {
		if name == word {
			return kind, true
		}
	}
	return CmdHelp, false
}

// ParseCommand parses what follows the !snake prefix. A bare number is a
// board size for a new game; anything unknown gets the help.
func ParseCommand(input string) (Command, error) {
	words := strings.Fields(strings.ToLower(input))
	if len(words) == 0 {
		return Command{Kind: CmdPlay}, nil
	}
	kind, ok := lookupCommand(words[0])
	if !ok {
		if _, err := strconv.Atoi(words[0]); err != nil {
			return Command{Kind: CmdHelp}, nil
		}
		// "!snake 5" is "!snake play 5".
		kind = CmdPlay
		words = append([]string{"play"}, words...)
	}
	cmd := Command{Kind: kind}
	if kind == CmdPlay && len(words) > 1 {
		size, err := strconv.Atoi(words[1])
		if err != nil {
			return cmd, fmt.Errorf("invalid board size %q: %w", words[1], ErrBoardSize)
		}
		if err := checkSize(size); err != nil {
			return cmd, err
		}
		cmd.Size = size
	}
	return cmd, nil
}

func checkSize(size int) error {
	if size < minBoardSize || size > maxBoardSize {
		return fmt.Errorf("%d: %w", size, ErrBoardSize)
	}
	return nil
}

var discordgoVersion, _, _ = version.FromBuildInfoPath("github.com/bwmarrin/discordgo")

const helpText = "🐍 MyWeb snake bot help: play snake right here in discord." +
	" Start a game with `!snake` (or `!snake play 5` for a 5x5 board, from 3 to 12) or `/snake`," +
	" then steer with the ⬅️ ⬆️ ⬇️ ➡️ buttons (or reactions), 🛑 ends the game.\n" +
	"Eat 🍎 to grow, don't hit the walls or yourself. Idle games end by themselves.\n\n" +
	"Also supported `!snake stop`, `!snake games`, `!snake version`, `!snake source`, `!snake buildinfo`, `!snake bug`." +
	" In DMs the `!snake` prefix is optional."

// textResponse is the reply for the commands that only produce text.
func textResponse(kind CommandKind) string {
	switch kind {
	case CmdSource:
		return "📄 [github.com/myweb-bot/myweb-discord-bot](<https://github.com/myweb-bot/myweb-discord-bot>)"
	case CmdVersion:
		return "📦 MyWeb snake bot version: " + cli.ShortVersion + ", `discordgo` version " + discordgoVersion +
			" ⏰ Uptime: " + UptimeString(botStartTime)
	case CmdBuildInfo:
		return "📦ℹ️```" + cli.FullVersion + "```"
	case CmdBug:
		return "🐞 Please report any issue or suggestion at " +
			"[github.com/myweb-bot/myweb-discord-bot/issues](<https://github.com/myweb-bot/myweb-discord-bot/issues>)"
	case CmdGames:
		n := games.Len()
		return fmt.Sprintf("🎮 %d %s running.", n, cli.Plural(n, "game"))
	default:
		return helpText
	}
}

// route runs a command. This is the only place dispatching on CommandKind.
func route(cmd Command, p *CommandParams) {
	log.S(log.Verbose, "route", log.String("cmd", cmd.Kind.String()), log.Any("size", cmd.Size), log.String("user", p.userID))
	switch cmd.Kind {
	case CmdPlay:
		startGame(cmd, p)
	case CmdStop:
		stopGame(p)
	case CmdReset:
		if !IsAdmin(p.userID) {
			respond(p, errorsBlock([]string{"Only the bot admin can reset the bot - please ask <@" + BotAdmin + ">"}))
			return
		}
		log.Critf("Admin %s requested reset", p.userID)
		respond(p, "🔄 Resetting bot per <@"+BotAdmin+">, brb!.")
		scheduleReset(p.session)
	case CmdHelp, CmdSource, CmdVersion, CmdBuildInfo, CmdBug, CmdGames:
		respond(p, textResponse(cmd.Kind))
	}
}

// respond answers with text: ephemeral for interactions, a message otherwise.
func respond(p *CommandParams, text string) {
	if p.interaction != nil {
		ephemeral(p.session, p.interaction, text)
		return
	}
	reply(p.session, text, p)
}

func errorsBlock(errs []string) string {
	res := "```diff"
	for i, e := range errs {
		if i >= 2 {
			n := len(errs) - i
			res += fmt.Sprintf("\n...%d more %s...", n, cli.Plural(n, "error"))
			break
		}
		res += "\n-\t" + strings.Join(strings.Split(e, "\n"), "\n-\t")
	}
	res += "\n```"
	return res
}

func startGame(cmd Command, p *CommandParams) {
	cfg := gameConfig(cmd.Size)
	h := newMessageHost(p.session, messageCreator(p), p.userID, *renderRate)
	s := game.NewSession(p.userID, cfg, h)
	h.sessionID = s.ID()
	h.onCreated = func(msg *discordgo.Message) {
		games.SetMessage(s.ID(), msg.ID)
	}
	if err := games.Add(s); err != nil {
		if errors.Is(err, ErrAlreadyPlaying) {
			respond(p, "🐍 You already have a game running, finish it or use `!snake stop` first.")
			return
		}
		respond(p, errorsBlock([]string{err.Error()}))
		return
	}
	log.S(log.Info, "snake game start", log.String("id", s.ID()), log.String("owner", p.userName),
		log.Any("size", cfg.BoardSize), log.String("channel", p.channelID))
	s.Start(botCtx)
}

func stopGame(p *CommandParams) {
	s, found := games.ByOwner(p.userID)
	if !found {
		respond(p, "🐍 You don't have a game running.")
		return
	}
	if err := s.Stop(p.userID); err != nil {
		respond(p, errorsBlock([]string{err.Error()}))
		return
	}
	respond(p, fmt.Sprintf("🛑 Game stopped, final length %d.", s.Len()))
}

// messageCreator returns how the first frame of a game is posted: as the
// interaction response for slash commands, as a reply otherwise.
func messageCreator(p *CommandParams) createFunc {
	session := p.session
	if p.interaction != nil {
		interaction := p.interaction
		return func(content string, components []discordgo.MessageComponent) (*discordgo.Message, error) {
			err := session.InteractionRespond(interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content:         content,
					Components:      components,
					AllowedMentions: noMentions,
				},
			})
			if err != nil {
				return nil, err
			}
			return session.InteractionResponse(interaction)
		}
	}
	channelID := p.channelID
	var ref *discordgo.MessageReference
	if p.useReply && p.message != nil {
		ref = &discordgo.MessageReference{
			MessageID: p.message.ID,
			ChannelID: p.message.ChannelID,
			GuildID:   p.message.GuildID,
		}
	}
	return func(content string, components []discordgo.MessageComponent) (*discordgo.Message, error) {
		return session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         content,
			Components:      components,
			AllowedMentions: noMentions,
			Reference:       ref,
		})
	}
}

func float64Ptr(f float64) *float64 {
	return &f
}

func registerCommands(session *discordgo.Session) {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(commandNames))
	for _, kind := range []CommandKind{CmdPlay, CmdStop, CmdHelp, CmdGames, CmdVersion, CmdSource, CmdBug} {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  kind.String(),
			Value: kind.String(),
		})
	}
	command := &discordgo.ApplicationCommand{
		Name:        "snake",
		Description: "Play snake",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "command",
				Description: "What to do, play by default",
				Required:    false,
				Choices:     choices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "size",
				Description: "Board size for a new game",
				Required:    false,
				MinValue:    float64Ptr(minBoardSize),
				MaxValue:    maxBoardSize,
			},
		},
	}
	_, err := session.ApplicationCommandCreate(selfID, *guildID, command)
	if err != nil {
		log.Fatalf("Cannot create slash command: %v", err)
	}
	command = &discordgo.ApplicationCommand{
		Name: "snake: delete this",
		Type: discordgo.MessageApplicationCommand,
	}
	_, err = session.ApplicationCommandCreate(selfID, *guildID, command)
	if err != nil {
		log.Fatalf("Cannot create chat command: %v", err)
	}
}

// slashCommand turns the /snake options into a Command.
func slashCommand(options []*discordgo.ApplicationCommandInteractionDataOption) (Command, error) {
	cmd := Command{Kind: CmdPlay}
	for _, option := range options {
		switch option.Name {
		case "command":
			kind, ok := lookupCommand(option.StringValue())
			if !ok {
				return Command{Kind: CmdHelp}, nil
			}
			cmd.Kind = kind
		case "size":
			size, err := safecast.Conv[int](option.IntValue())
			if err != nil {
				return cmd, fmt.Errorf("%w: %w", ErrBoardSize, err)
			}
			if err := checkSize(size); err != nil {
				return cmd, err
			}
			cmd.Size = size
		}
	}
	return cmd, nil
}

func slashCmdInteraction(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	userID, userName := interactionUser(interaction.Interaction)
	serverName, channelName := channelNames(session, interaction.GuildID, interaction.ChannelID)
	options := interaction.ApplicationCommandData().Options
	log.S(log.Info, "interaction",
		log.Any("from", userName),
		log.Any("server", serverName),
		log.Any("channel", channelName),
		log.Any("options", options))
	p := &CommandParams{
		session:     session,
		channelID:   interaction.ChannelID,
		userID:      userID,
		userName:    userName,
		interaction: interaction.Interaction,
	}
	cmd, err := slashCommand(options)
	if err != nil {
		respond(p, errorsBlock([]string{err.Error()}))
		return
	}
	route(cmd, p)
}
