package main

import (
	"MagicLists/cmd"
)

func main() {
	cmd.Execute()
}
