package main

import "github.com/websimple-ai/websimple-backend/cmd"

func main() {
	cmd.Init()
}
