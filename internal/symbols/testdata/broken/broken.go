package broken

//strata::singleton
type Counter struct {
	total int
}

var start int = "zero"

func NewScope() *Counter {
	return &Counter{total: start}
}

var _ = NewApplicationScope
