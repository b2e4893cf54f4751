package main

import "github.com/RyanBlaney/sonido-chords/cmd"

func main() {
	cmd.Execute()
}
