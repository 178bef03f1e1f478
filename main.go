package main

import (
	"os"

	"github.com/recruiterlab/rankdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
