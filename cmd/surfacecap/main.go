package main

import "github.com/bryanchriswhite/surfacecap/cmd/surfacecap/commands"

func main() {
	commands.Execute()
}
