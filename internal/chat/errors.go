package chat

import "errors"

var (
	// ErrIdentityCreation indicates a storage failure while minting a new
	// anonymous user. A client token collision also surfaces here; with
	// 256 bits of randomness that means the entropy source is broken, so it
	// is fatal and never retried.
	ErrIdentityCreation = errors.New("could not create user identity")

	// ErrPersistence indicates a message write failure.
	ErrPersistence = errors.New("could not persist message")
)
