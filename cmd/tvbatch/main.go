package main

import (
	"os"

	"github.com/wonny/tvbatch/cmd/tvbatch/commands"
)

// main is the entry point for the tvbatch CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/tvbatch [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
