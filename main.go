package main

import "github.com/liquescentremedies/SillyTavern/internal/cmd"

func main() {
	cmd.Execute()
}
