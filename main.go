package main

import "patient-intake-server/internal/cli"

func main() {
	cli.Execute()
}
