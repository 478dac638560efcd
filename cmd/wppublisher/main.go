package main

import (
	"github.com/bornholm/wppublisher/internal/command"
	"github.com/bornholm/wppublisher/internal/command/config"
	"github.com/bornholm/wppublisher/internal/command/optimize"
	"github.com/bornholm/wppublisher/internal/command/publish"
)

var (
	version = "dev"
)

func main() {
	command.Main(
		"wppublisher",
		version,
		"Publish HTML articles to WordPress, optionally rewritten by a language model",
		publish.Publish(),
		optimize.Optimize(),
		config.Config(),
	)
}
