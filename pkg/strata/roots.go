package strata

// ApplicationRoot is implemented by types that own the application-wide scope.
// Embed Application to satisfy it.
type ApplicationRoot interface {
	applicationRoot()
}

// ScreenRoot is implemented by types that own a screen scope. Embed Screen to satisfy it.
type ScreenRoot interface {
	screenRoot()
}

// Application marks the embedding struct as the application root
type Application struct{}

func (Application) applicationRoot() {}

// Screen marks the embedding struct as a screen root
type Screen struct{}

func (Screen) screenRoot() {}
