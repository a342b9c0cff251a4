package main

import "github.com/MeKo-Tech/lapwatch/cmd/lapwatch/cmd"

func main() {
	cmd.Execute()
}
