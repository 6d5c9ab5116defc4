package config

import "dario.cat/mergo"

// mergeInto merges a user-provided YAML section onto a defaults struct,
// with non-zero user fields overriding the defaults. Both arguments must
// be non-nil pointers to the same struct type; callers skip the call
// entirely when the user did not supply that section.
func mergeInto(defaults, override any) error {
	return mergo.Merge(defaults, override, mergo.WithOverride)
}
