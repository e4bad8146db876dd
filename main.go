package main

import "realestate-agent/commands"

func main() {
	commands.Execute()
}
