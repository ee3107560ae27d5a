package main

import (
	"fmt"
	"os"

	"github.com/kailas-cloud/serpdex/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "serpq:", err)
		os.Exit(1)
	}
}
