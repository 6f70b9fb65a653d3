// Package loader provides the feature loading system.
//
// Each feature implements the Feature interface, which names the feature,
// tells whether it is enabled and registers its routes.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager keeps the registered features and loads the enabled ones with
// LoadAll, in registration order.
package loader
