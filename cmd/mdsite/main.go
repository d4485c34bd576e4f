package main

import (
	"log"

	"github.com/goliatone/go-mdsite/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
