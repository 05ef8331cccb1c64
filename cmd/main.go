package main

import (
	"os"

	"github.com/soundprediction/metalink/cmd/metalink"
)

func main() {
	if err := metalink.Execute(); err != nil {
		os.Exit(1)
	}
}
