package launch

import "example.com/launch/store"

// Root marks the application root of this module
type Root interface {
	root()
}

type base struct{}

func (base) root() {}

// App is the application root
type App struct {
	base

	//strata::inject
	Store *store.Store
}

//strata::bean
type Counter struct {
	//strata::inject
	Store *store.Store
}
