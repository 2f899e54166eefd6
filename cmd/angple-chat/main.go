package main

import "github.com/damoang/angple-realtime/internal/cli"

func main() {
	cli.Execute()
}
