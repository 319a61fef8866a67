package main

import "github.com/dcook-net/json-everything/cmd/jev/cmd"

func main() {
	cmd.Execute()
}
