package main

import "github.com/sw33tLie/msupdater/cmd"

func main() {
	cmd.Execute()
}
