package main

import "carrier-rate-optimizer/internal/cli"

func main() {
	cli.Execute()
}
