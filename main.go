package main

import "clipseek/cmd"

func main() {
	cmd.Execute()
}
