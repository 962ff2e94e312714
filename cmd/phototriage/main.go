package main

import "phototriage/internal/cli"

func main() {
	cli.Execute()
}
