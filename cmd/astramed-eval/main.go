// Package main is the entry point for the AstraMed offline evaluator.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/astramed/cmd/astramed-eval/app"
)

func main() {
	app.NewApp().Run()
}
