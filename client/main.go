package main

import (
	"os"

	"github.com/openairproject/oap-ota/client/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
