package main

import "github.com/samsaffron/genweb/cmd"

func main() {
	cmd.Execute()
}
