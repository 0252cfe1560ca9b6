// Package main is the entry point for the AstraMed corpus ingestion tool.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/astramed/cmd/astramed-ingest/app"
)

func main() {
	app.NewApp().Run()
}
