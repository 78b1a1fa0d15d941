package main

import (
	"github.com/printforge/printforge/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
