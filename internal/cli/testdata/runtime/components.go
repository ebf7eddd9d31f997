package main

import (
	"errors"
	"sync"

	"github.com/toyz/strata/pkg/strata"
)

var (
	traceMu sync.Mutex
	trace   []string
)

func record(step string) {
	traceMu.Lock()
	defer traceMu.Unlock()
	trace = append(trace, step)
}

// App is the application root
type App struct {
	strata.Application

	//strata::inject
	Db *Db
}

// Main is the only screen
type Main struct {
	strata.Screen
}

//strata::singleton
type Db struct{}

func NewDb() *Db {
	return &Db{}
}

//strata::postconstruct -Priority=5
func (d *Db) OpenPrimary() {
	record("5a")
}

//strata::postconstruct -Priority=5
func (d *Db) OpenReplica() {
	record("5b")
}

//strata::postconstruct -Priority=1
func (d *Db) Migrate() error {
	record("1")
	return nil
}

//strata::postconstruct
func (d *Db) Warm() {
	record("0")
}

//strata::singleton
type Broker struct{}

func NewBroker() (*Broker, error) {
	return nil, errors.New("broker unreachable")
}

//strata::singleton
type Cache struct{}

func NewCache() *Cache {
	return &Cache{}
}

//strata::postconstruct
func (c *Cache) Load() error {
	return errors.New("cache warmup failed")
}

//strata::bind
type Widget struct {
	//strata::param
	ID int

	//strata::inject
	Db *Db
}
