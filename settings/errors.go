package settings

import "fmt"

// ConfigurationError reports a missing or malformed option.
type ConfigurationError struct {
	// Option is the dotted path of the offending option, such as
	// "measures.heart_rate.range".
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid option %s: %s", e.Option, e.Reason)
}
