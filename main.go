package main

import "scanline/cmd"

func main() {
	cmd.Execute()
}
