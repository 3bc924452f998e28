package main

import (
	"github.com/canopy-network/canopy/lib/schnorrkel/cmd/schnorrkel/commands"
)

func main() {
	commands.Execute()
}
