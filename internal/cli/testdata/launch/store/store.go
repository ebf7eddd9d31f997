package store

//strata::singleton
type Store struct {
	open bool
}

func NewStore() *Store {
	return &Store{}
}

//strata::postconstruct
func (s *Store) Open() error {
	s.open = true
	return nil
}

//strata::predestroy
func (s *Store) Close() {
	s.open = false
}

func (s *Store) Ready() bool {
	return s.open
}
