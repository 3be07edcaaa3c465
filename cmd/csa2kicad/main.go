package main

import "github.com/OpenTraceLab/csa2kicad/cmd/csa2kicad/cmd"

func main() {
	cmd.Execute()
}
