// Package config defines the top-level CLI grammar.
package config

import (
	"github.com/virthid/softmouse/internal/cmd"
	"github.com/virthid/softmouse/internal/log"
)

// CLI is the root command structure parsed by kong.
type CLI struct {
	Run    cmd.Run           `cmd:"" default:"withargs" help:"Register the virtual mouse and drive it from the terminal"`
	Config cmd.ConfigCommand `cmd:"" help:"Configuration file helpers"`

	ConfigFile string     `name:"config" help:"Path to a configuration file" env:"SOFTMOUSE_CONFIG"`
	Log        log.Config `embed:"" prefix:"log."`
}
