package main

import "cml-linkmap/cli"

func main() {
	cli.Execute()
}
