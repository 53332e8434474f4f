package main

import "github.com/tdnguyen/vigil/internal/cli"

func main() {
	cli.Execute()
}
