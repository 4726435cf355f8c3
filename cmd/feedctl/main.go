package main

import "github.com/d60-Lab/networkqy/internal/cli"

func main() {
	cli.Execute()
}
