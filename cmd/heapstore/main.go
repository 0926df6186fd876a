package main

import "go.heapstore/internal/cli"

func main() {
	cli.Execute()
}
