package main

import "github.com/clips-workspace/clipd/cmd"

var version = "devel"

func main() {
	cmd.Execute(version)
}
