package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/AlexTLDR/wedding/internal/cli"
)

func main() {
	// a missing .env is fine; flags and the environment still work
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
