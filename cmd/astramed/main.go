// Package main is the entry point for the AstraMed medical QA service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/astramed/cmd/astramed/app"
)

func main() {
	app.NewApp().Run()
}
