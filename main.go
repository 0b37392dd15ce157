package main

import "github.com/scienceol/sessionctl/cmd"

func main() {
	cmd.Execute()
}
