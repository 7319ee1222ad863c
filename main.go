package main

import "github.com/ormkit/ormkit/cmd"

func main() {
	cmd.Execute()
}
