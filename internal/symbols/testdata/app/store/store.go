package store

//strata::singleton
type Store struct{}

func NewStore() (*Store, error) {
	return &Store{}, nil
}

//strata::predestroy
func (s *Store) Close() error {
	return nil
}
