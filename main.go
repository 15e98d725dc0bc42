package main

import "tdsr/internal/cli"

func main() {
	cli.Execute()
}
