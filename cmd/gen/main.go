package main

import (
	"fieldops/internal/repository"
	"fieldops/pkg/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	repository.RunGenerate()
}
