package config

import "fmt"

// validFormats is the set of recognised report formats.
var validFormats = map[string]struct{}{
	"json":  {},
	"table": {},
}

// Validate checks c for semantic correctness and returns all validation
// errors found. An empty slice means the config is valid.
//
// Checks performed:
//   - inventory.format must be json or table if set
//   - inventory.concurrency and transport.max_attempts must not be negative
//   - every duration must parse and must not be negative
//
// Region codes are not checked here; the engine validates the region it is
// actually asked to use.
func (c *Config) Validate() []error {
	if c == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if f := c.Inventory.Format; f != "" {
		if _, ok := validFormats[f]; !ok {
			errs = append(errs, fmt.Errorf("inventory.format: unsupported value %q; must be json or table", f))
		}
	}
	if c.Inventory.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("inventory.concurrency: must not be negative, got %d", c.Inventory.Concurrency))
	}
	if c.Transport.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("transport.max_attempts: must not be negative, got %d", c.Transport.MaxAttempts))
	}

	durations := []struct{ key, value string }{
		{"inventory.retry_delay", c.Inventory.RetryDelay},
		{"transport.connect_timeout", c.Transport.ConnectTimeout},
		{"transport.request_timeout", c.Transport.RequestTimeout},
	}
	for _, d := range durations {
		v, err := Duration(d.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.key, err))
			continue
		}
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative, got %s", d.key, d.value))
		}
	}

	return errs
}
