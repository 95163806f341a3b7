package main

import "item-catalog/internal/cli"

func main() {
	cli.Execute()
}
