package main

import (
	"os"

	"github.com/echoping/echoping/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
