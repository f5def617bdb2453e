package main

import "github.com/mirlab/softsim/cmd"

func main() {
	cmd.Execute()
}
