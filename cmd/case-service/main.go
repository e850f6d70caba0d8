package main

import (
	"log"

	"github.com/puzakroman35-sys/ohmatdyt-crm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
