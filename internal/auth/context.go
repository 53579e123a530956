package auth

// AuthContext is the process wide, read-only login state. It is built once
// at startup and handed to every component that needs it.
type AuthContext struct {
	Keys     *KeyPair
	Registry *Registry
	Codec    *TokenCodec
}
