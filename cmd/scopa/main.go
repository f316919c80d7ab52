package main

import (
	"github.com/joho/godotenv"

	"github.com/mcoot/scopa-go/internal/cli"
)

func main() {
	// A .env file next to the binary may carry SCOPA_* settings; it is optional
	_ = godotenv.Load()

	cli.Execute()
}
