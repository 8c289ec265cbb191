package config

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger builds a zerolog logger from the log settings. With a file set it
// writes JSON lines there, which keeps the terminal free for the TUI;
// otherwise it writes human-readable output to console. The returned close
// func releases the file.
func (l LogConfig) Logger(console io.Writer) (zerolog.Logger, func() error, error) {
	// Validate rejects unknown levels; empty means info.
	level := zerolog.InfoLevel
	if l.Level != "" {
		parsed, err := zerolog.ParseLevel(l.Level)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		level = parsed
	}

	if l.File == "" {
		w := zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), func() error { return nil }, nil
	}

	f, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return zerolog.New(f).Level(level).With().Timestamp().Logger(), f.Close, nil
}
