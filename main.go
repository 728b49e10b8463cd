package main

import (
	"log"

	"github.com/uninet-app/uninet/cmd"
	"github.com/uninet-app/uninet/config"
)

func main() {
	log.Printf("uninet %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
