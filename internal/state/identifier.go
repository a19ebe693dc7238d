package state

// Identifier names a principal. It is opaque to this package: equality is
// byte-exact and no normalization is applied.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}
