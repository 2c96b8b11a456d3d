package main

import "github.com/llehouerou/unitplayer/internal/cli"

func main() {
	cli.Execute()
}
