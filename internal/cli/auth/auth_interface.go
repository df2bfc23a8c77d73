package auth

// TokenStore defines the interface for token storage operations
// This allows us to mock the keyring in tests
type TokenStore interface {
	SaveToken(gateway, token string) error
	LoadToken(gateway string) (string, error)
	DeleteToken(gateway string) error
}

// defaultTokenStore implements TokenStore using the OS keyring
type defaultTokenStore struct{}

var Default TokenStore = &defaultTokenStore{}

func (d *defaultTokenStore) SaveToken(gateway, token string) error {
	return SaveToken(gateway, token)
}

func (d *defaultTokenStore) LoadToken(gateway string) (string, error) {
	return LoadToken(gateway)
}

func (d *defaultTokenStore) DeleteToken(gateway string) error {
	return DeleteToken(gateway)
}
