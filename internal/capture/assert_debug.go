//go:build touchdebug

package capture

// timingViolation panics in debug builds: the tick and cycle rates are a
// precondition of the platform configuration.
func timingViolation(what string) {
	panic("capture: timing violation: " + what)
}
