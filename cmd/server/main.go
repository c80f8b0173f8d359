package main

import (
	"github.com/openlit/litmine/backend/internal/server"
	"github.com/openlit/litmine/backend/internal/util"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
