package app

import "context"

// Start wires the application through the generated scope
func Start(ctx context.Context) error {
	scope, err := NewApplicationScope(ctx, &App{})
	if err != nil {
		return err
	}
	defer scope.Close(ctx)

	session := NewBindSession("ada").Create(scope)
	return session.Open(ctx)
}
