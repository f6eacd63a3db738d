package main

import (
	"os"

	"github.com/Sakenfor/pixsim7-sub009/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
