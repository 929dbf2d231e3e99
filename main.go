package main

import "github.com/KaramelBytes/traptidy-cli/cmd"

func main() {
	cmd.Execute()
}
