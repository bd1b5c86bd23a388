package main

import "fmt"

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

func printVersion() {
	fmt.Printf("bot-gateway %s\n", Version)
}
