package main

import "github.com/mcoot/dinkup/internal/cli"

func main() {
	cli.Execute()
}
