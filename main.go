package main

import "vod-hit-finder/cmd"

func main() {
	cmd.Execute()
}
