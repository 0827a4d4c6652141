package main

import "github.com/kozaktomas/visual-search/cmd"

func main() {
	cmd.Execute()
}
