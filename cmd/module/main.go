package main

import (
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"

	ravensim "github.com/RAVEN-GP/raven-sim"
)

func main() {
	module.ModularMain(
		resource.APIModel{API: generic.API, Model: ravensim.SweepCapturer},
	)
}
