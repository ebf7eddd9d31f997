package strata

import "context"

// Step is one continuation of a Chain: a named function posted to a named executor
type Step struct {
	Executor string
	Name     string
	Run      func() error
}

// NewStep builds a step; an empty executor tag means MainExecutor
func NewStep(executor, name string, run func() error) Step {
	if executor == "" {
		executor = MainExecutor
	}
	return Step{Executor: executor, Name: name, Run: run}
}

// Chain is a strictly sequential continuation chain. Each step is posted to its
// executor only after the previous step returned; the first failing step ends the
// chain. Chains cannot be cancelled once started.
type Chain struct {
	steps []Step
}

// NewChain creates a chain from steps in execution order
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// Len returns the number of steps
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.steps)
}

// Run starts the chain. An empty chain returns an already successful task.
func (c *Chain) Run(execs *Executors) *Task[struct{}] {
	task := NewTask[struct{}](context.Background(), DoNotInterrupt)
	task.start()
	if c.Len() == 0 {
		task.Succeed(struct{}{})
		return task
	}
	c.post(execs, task, 0)
	return task
}

func (c *Chain) post(execs *Executors, task *Task[struct{}], index int) {
	step := c.steps[index]
	fail := func(err error) {
		task.Fail(&StepError{Index: index, Name: step.Name, Executor: step.Executor, Cause: err})
	}

	exec, err := execs.Get(step.Executor)
	if err != nil {
		fail(err)
		return
	}
	err = exec.Post(func() {
		if err := protect(step.Run); err != nil {
			fail(err)
			return
		}
		if index == len(c.steps)-1 {
			task.Succeed(struct{}{})
			return
		}
		c.post(execs, task, index+1)
	})
	if err != nil {
		fail(err)
	}
}
