package main

import (
	"ceres/cmd/cmd"
	"ceres/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
