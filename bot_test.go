package main_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	bot "myweb.bot/myweb-discord-bot"
)

func TestUptime(t *testing.T) {
	delta := 100*time.Millisecond + 26*time.Hour + 42*time.Minute
	startTime := time.Now().Add(-delta)
	actual := bot.UptimeString(startTime)
	expected := "1d2h42m0.1s"
	if actual != expected {
		t.Errorf("Expected %v, but got %v", expected, actual)
	}
	delta = 23*time.Hour + 5*time.Minute
	actual = bot.DurationString(delta)
	expected = "23h5m"
	if actual != expected {
		t.Errorf("Expected %v, but got %v", expected, actual)
	}
	delta = 96*time.Hour - 100*time.Millisecond
	actual = bot.DurationString(delta)
	expected = "3d23h59m59.9s"
	if actual != expected {
		t.Errorf("Expected %v, but got %v", expected, actual)
	}
	delta = 8*24*time.Hour + 3*time.Minute
	actual = bot.DurationString(delta)
	expected = "1w1d3m"
	if actual != expected {
		t.Errorf("Expected %v, but got %v", expected, actual)
	}
}

func TestParseCommand(t *testing.T) {
	// table driven input, expected
	tests := []struct {
		input string
		kind  bot.CommandKind
		size  int
	}{
		{"", bot.CmdPlay, 0},
		{"   ", bot.CmdPlay, 0},
		{"play", bot.CmdPlay, 0},
		{" start 5", bot.CmdPlay, 5},
		{"PLAY 12", bot.CmdPlay, 12},
		{"8", bot.CmdPlay, 8},
		{"stop", bot.CmdStop, 0},
		{"quit", bot.CmdStop, 0},
		{"help", bot.CmdHelp, 0},
		{"--help", bot.CmdHelp, 0},
		{"what is this", bot.CmdHelp, 0},
		{"version", bot.CmdVersion, 0},
		{"uptime", bot.CmdVersion, 0},
		{"buildinfo", bot.CmdBuildInfo, 0},
		{"source", bot.CmdSource, 0},
		{"bug", bot.CmdBug, 0},
		{"games", bot.CmdGames, 0},
		{"reset", bot.CmdReset, 0},
		{"stop 5", bot.CmdStop, 0},
	}
	for _, test := range tests {
		cmd, err := bot.ParseCommand(test.input)
		if err != nil {
			t.Errorf("---For %q--- unexpected error %v", test.input, err)
			continue
		}
		if cmd.Kind != test.kind || cmd.Size != test.size {
			t.Errorf("---For %q--- Expected %v/%d, but got %v/%d", test.input, test.kind, test.size, cmd.Kind, cmd.Size)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, input := range []string{"play 2", "play 13", "play big", "100", "-1"} {
		_, err := bot.ParseCommand(input)
		if !errors.Is(err, bot.ErrBoardSize) {
			t.Errorf("---For %q--- Expected ErrBoardSize, got %v", input, err)
		}
	}
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("🐍", 10)
	if actual, truncated := bot.Truncate(short); truncated || actual != short {
		t.Errorf("Expected %q untouched, got %q (%t)", short, actual, truncated)
	}
	long := strings.Repeat("🐍", bot.MaxMessageLengthInRunes+5)
	actual, truncated := bot.Truncate(long)
	if !truncated {
		t.Errorf("Expected truncation of %d runes", len([]rune(long)))
	}
	if n := len([]rune(actual)); n != bot.MaxMessageLengthInRunes+1 {
		t.Errorf("Expected %d runes, got %d", bot.MaxMessageLengthInRunes+1, n)
	}
}
