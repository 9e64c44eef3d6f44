package main

import (
	"embed"
	"os"
)

//go:embed assets/*
var content embed.FS

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
