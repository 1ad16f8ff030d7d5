package main

import "thermweb-monitor/internal/cli"

func main() {
	cli.Execute()
}
