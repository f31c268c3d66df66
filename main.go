package main

import "github.com/bridgedoc/bridgedoc/cmd"

func main() {
	cmd.Execute()
}
