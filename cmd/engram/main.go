package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/engramkit/engram/internal/cli"
)

func main() {
	// Optional .env in the working directory; real env vars win.
	godotenv.Load()

	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
