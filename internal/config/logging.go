package config

import (
	"io"
	"os"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging configures the global logger. Debug mode adds caller
// info and millisecond timestamps. When LogFile is set, output also
// goes to a size-rotated file so long-running daemons don't fill a
// partition.
func (c *Config) SetupLogging(debug bool) {
	opts := []log.Option{log.Msec, log.LevelBraces}
	if debug {
		opts = append(opts, log.Debug, log.CallerFile)
	}

	if c.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		opts = append(opts, log.Out(io.MultiWriter(os.Stderr, rotated)))
	}

	log.Setup(opts...)
}
