package modules

import (
	"github.com/lifaair-community/lifaair-mqtt/pkg/config"
	"github.com/lifaair-community/lifaair-mqtt/pkg/lifaair"
	"github.com/lifaair-community/lifaair-mqtt/pkg/mqtt"
)

// Interface for the different modules of the bridge.
type Module interface {
	Start() error
	Stop() error
}

type ModuleBuilder func(mqtt.Client, lifaair.Client, lifaair.Coordinator, *config.Config) Module

// Register stores a builder function into the registry for external access.
// Register() can be called from init() on a module in this package and will
// automatically register a module.
func Register(name string, builder ModuleBuilder) {
	Modules[name] = builder
}

var Modules = map[string]ModuleBuilder{}
