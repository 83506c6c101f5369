package main

import "shelver/cmd/shelver/cmd"

func main() {
	cmd.Execute()
}
