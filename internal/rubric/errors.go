package rubric

import "fmt"

// ConfigError indicates the rubric document is unusable. It is the only error
// class that aborts a grading run before any scoring happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("rubric config: %s", e.Reason)
	}
	return fmt.Sprintf("rubric config: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
