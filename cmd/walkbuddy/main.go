package main

import "github.com/walkbuddy/walkbuddy/internal/cli"

func main() {
	cli.Execute()
}
