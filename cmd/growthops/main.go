package main

import "github.com/emiliopalmerini/growthops/internal/cli"

func main() {
	cli.Execute()
}
