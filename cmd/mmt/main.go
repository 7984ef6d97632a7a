package main

import "module-tool/internal/cli"

func main() {
	cli.Execute()
}
