package main

import (
	"github.com/joho/godotenv"

	"bond-lifecycle-demo/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
