package port

// PasswordPolicyValidator enforces password strength requirements.
// hints are account details a password must not be built from.
type PasswordPolicyValidator interface {
	Validate(password string, hints ...string) error
}

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
	// VerifyDummy spends the cost of one verification without a stored hash.
	VerifyDummy(password string)
}
