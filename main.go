package main

import (
	"os"

	"github.com/404wolf/livefs/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// LIVEFS_ settings may come from a .env file; it is fine if there is none
	_ = godotenv.Load(".env")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
