package main

import (
	"log"

	"github.com/junaidrashid-git/storefront/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}
