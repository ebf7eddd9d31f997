// Package strata is the runtime called by code that the strata generator emits:
// lazy scope slots, tasks with tagged results, named executors, the startup
// barrier, lifecycle continuation chains and reflective method handles.
package strata
