package main

import "github.com/riskgate/riskgate/internal/cli"

func main() {
	cli.Execute()
}
