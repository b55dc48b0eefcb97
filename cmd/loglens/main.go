package main

import "github.com/loglens/backend/internal/cli"

func main() {
	cli.Execute()
}
