package main

import (
	"videorag/internal/server"
	"videorag/internal/util"
	"videorag/pkg/logger"
	"videorag/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	if err := server.Init(); err != nil {
		logger.Fatal("Server failed", "error", err)
	}
}
