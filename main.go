package main

import (
	"flag"
	"os"
	"time"

	"fortio.org/duration"
	"fortio.org/log"
	"fortio.org/scli"
	"github.com/joho/godotenv"
	"myweb.bot/myweb-discord-bot/game"
)

var (
	boardSize  = flag.Int("board-size", game.DefaultBoardSize, "Default snake `board size` (cells per side)")
	tick       = duration.Flag("tick", game.DefaultTickInterval, "Snake tick `interval`")
	idle       = duration.Flag("idle", game.DefaultIdleTimeout, "End a snake game after this long without input")
	maxGames   = flag.Int("max-games", 100, "Maximum number of live games, the least recently used one is stopped beyond that")
	renderRate = duration.Flag("render-rate", 500*time.Millisecond, "Minimum `interval` between two edits of a game message")
	plainHead  = flag.Bool("plain-head", false, "Draw the snake head like the rest of the body")
	guildID    = flag.String("guild", "", "Register the slash commands for this `guild ID` only instead of globally")
)

func main() {
	flag.StringVar(&BotAdmin, "admin", "", "Discord `user ID` of the bot admin (allowed to reset)")
	// .env is optional, real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Unable to load .env: %v", err)
	}
	scli.ServerMain()
	BotToken = os.Getenv("DISCORD_BOT_TOKEN")
	if BotToken == "" {
		log.Fatalf("DISCORD_BOT_TOKEN must be set")
	}
	if *boardSize < minBoardSize || *boardSize > maxBoardSize {
		log.Fatalf("-board-size must be between %d and %d, got %d", minBoardSize, maxBoardSize, *boardSize)
	}
	if *maxGames < 2 {
		log.Fatalf("-max-games must be at least 2, got %d", *maxGames)
	}
	Run(*maxGames)
}
