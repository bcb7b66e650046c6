package security

const (
	defaultMinPasswordLength   = 10
	defaultMinCharacterClasses = 3
	defaultMinZxcvbnScore      = 3
)

// PasswordPolicyConfig tunes the built-in password rules.
type PasswordPolicyConfig struct {
	MinLength        int
	MinClasses       int
	MinStrengthScore int
}

// DefaultPasswordPolicyConfig returns the storefront password policy.
func DefaultPasswordPolicyConfig() PasswordPolicyConfig {
	return PasswordPolicyConfig{
		MinLength:        defaultMinPasswordLength,
		MinClasses:       defaultMinCharacterClasses,
		MinStrengthScore: defaultMinZxcvbnScore,
	}
}

func (c PasswordPolicyConfig) validator(hints ...string) *PasswordValidator {
	return NewPasswordValidator(
		MinLengthRule(c.MinLength),
		RequireCharacterClassesRule(c.MinClasses),
		RequirePasswordStrengthRule(c.MinStrengthScore, hints...),
	)
}

// PasswordPolicy validates new passwords, penalising passwords built from the account's own details.
type PasswordPolicy struct {
	cfg PasswordPolicyConfig
}

// NewPasswordPolicy builds a policy, substituting defaults for unset values.
func NewPasswordPolicy(cfg PasswordPolicyConfig) *PasswordPolicy {
	def := DefaultPasswordPolicyConfig()
	if cfg.MinLength <= 0 {
		cfg.MinLength = def.MinLength
	}
	if cfg.MinClasses < 0 {
		cfg.MinClasses = def.MinClasses
	}
	if cfg.MinStrengthScore < 0 {
		cfg.MinStrengthScore = def.MinStrengthScore
	}
	return &PasswordPolicy{cfg: cfg}
}

// Validate applies the rules. hints are fed to zxcvbn as user inputs (email, names, phone).
func (p *PasswordPolicy) Validate(password string, hints ...string) error {
	inputs := make([]string, 0, len(hints))
	for _, h := range hints {
		if h != "" {
			inputs = append(inputs, h)
		}
	}
	return p.cfg.validator(inputs...).Validate(password)
}
