package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Fanfan0315/Horisation/internal/cli"
)

func main() {
	// Optional .env next to the working directory.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
