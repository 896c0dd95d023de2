package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/mmcdole/baldr/internal/domain"
)

// Launcher plays samples in an external player
type Launcher struct {
	command   string   // configured player command, empty to detect one
	args      []string // additional arguments for the player
	startFlag string   // start offset flag prefix, e.g., "--start=" or "-ss "
	endFlag   string   // end offset flag prefix, e.g., "--end="
	logger    *slog.Logger

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// playerFlags holds the offset flags of a known player
type playerFlags struct {
	start string
	end   string
}

// players registry - offset flags of known players
var players = map[string]playerFlags{
	"mpv":       {start: "--start=", end: "--end="},
	"vlc":       {start: "--start-time=", end: "--stop-time="},
	"cvlc":      {start: "--start-time=", end: "--stop-time="},
	"celluloid": {start: "--mpv-start=", end: "--mpv-end="},
	"haruna":    {start: "--mpv-start=", end: "--mpv-end="},
	"ffplay":    {start: "-ss "},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "vlc", "ffplay"},
	"linux":   {"mpv", "celluloid", "haruna", "vlc", "ffplay"},
	"windows": {"vlc", "mpv", "ffplay"},
}

// ErrNoPlayer is returned when no player command can be found
var ErrNoPlayer = errors.New("no media player found")

// NewLauncher creates a Launcher. Offset flags of known players are
// detected when not configured.
func NewLauncher(cfg PlayerConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Launcher{
		command:   cfg.Command,
		args:      cfg.Args,
		startFlag: cfg.StartFlag,
		endFlag:   cfg.EndFlag,
		logger:    logger,
		lookPath:  exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
	if cfg.Command != "" {
		l.detectFlags(cfg.Command)
	}
	return l
}

func playerName(command string) string {
	base := filepath.Base(command)
	// Strip any extension (for Windows .exe)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

func (l *Launcher) detectFlags(command string) {
	flags, ok := players[playerName(command)]
	if !ok {
		return
	}
	if l.startFlag == "" {
		l.startFlag = flags.start
	}
	if l.endFlag == "" {
		l.endFlag = flags.end
	}
	l.logger.Debug("auto-detected player offset flags", "player", playerName(command), "start", l.startFlag, "end", l.endFlag)
}

// offsetArgs renders a flag and its value. Flags ending in a space take the
// value as a separate argument.
func offsetArgs(flag string, seconds float64) []string {
	value := strconv.FormatFloat(seconds, 'f', -1, 64)
	if strings.HasSuffix(flag, " ") {
		return []string{strings.TrimSuffix(flag, " "), value}
	}
	return []string{flag + value}
}

// Args returns the player arguments for playing sample from url.
func (l *Launcher) Args(url string, sample *domain.Sample) []string {
	args := append([]string{}, l.args...)
	if sample.Start > 0 {
		if l.startFlag != "" {
			args = append(args, offsetArgs(l.startFlag, sample.Start)...)
		} else {
			l.logger.Warn("cannot set start offset - unknown player, configure start_flag in config",
				"command", l.command, "offset", sample.Start)
		}
	}
	if sample.End != nil {
		if l.endFlag != "" {
			args = append(args, offsetArgs(l.endFlag, *sample.End)...)
		} else {
			l.logger.Warn("cannot set end offset - unknown player, configure end_flag in config",
				"command", l.command, "offset", *sample.End)
		}
	}
	return append(args, url)
}

// Play starts the player for sample. The command returns once the player
// process has started.
func (l *Launcher) Play(sample *domain.Sample) error {
	url := sample.Asset.Locator
	if url == "" {
		return fmt.Errorf("asset %s has no locator", sample.Asset.URI)
	}

	// Tier 1: User configured a specific player
	if l.command != "" {
		args := l.Args(url, sample)
		l.logger.Info("launching player", "command", l.command, "args", args)
		return l.start(l.command, args...)
	}

	// Tier 2: Try candidate chain
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"] // default
	}
	for _, name := range candidates {
		path, err := l.lookPath(name)
		if err != nil {
			l.logger.Debug("player not available", "player", name, "error", err)
			continue
		}
		flags := players[name]
		detected := &Launcher{
			args:      l.args,
			startFlag: flags.start,
			endFlag:   flags.end,
			command:   path,
			logger:    l.logger,
		}
		args := detected.Args(url, sample)
		l.logger.Info("launched with detected player", "player", name, "path", path)
		return l.start(path, args...)
	}
	return ErrNoPlayer
}
