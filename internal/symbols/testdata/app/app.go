package app

import (
	"context"

	"example.com/app/store"
)

const SessionBeanName = "session"

// Root marks application roots in this module
type Root interface {
	root()
}

// Base satisfies Root
type Base struct{}

func (Base) root() {}

// App is the application root
type App struct {
	Base

	//strata::inject
	Store *store.Store
}

//strata::bean -Name=SessionBeanName
type Session struct {
	//strata::param
	User string

	hidden int
}

//strata::param user
func NewSession(user string) *Session {
	return &Session{User: user}
}

//strata::postconstruct -Priority=5 -Executor=background
func (s *Session) Open(ctx context.Context) error {
	return nil
}

func (s Session) Name() string {
	return s.User
}

func NewNothing() int {
	return 0
}
