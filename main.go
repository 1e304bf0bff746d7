package main

import "voice-coach/cmd"

func main() {
	cmd.Execute()
}
