package main

import "github.com/FranksOps/prospect/internal/cli"

func main() {
	cli.Execute()
}
