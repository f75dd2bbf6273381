package main

import (
	"log"
	"os"

	"osint-stories/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
