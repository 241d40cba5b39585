package config

// Source indicates where a configuration value came from.
type Source string

// Configuration source constants.
const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault Source = "default"

	// SourceGlobal indicates the value came from ~/.config/relstage/config.yaml.
	SourceGlobal Source = "global"

	// SourceLocal indicates the value came from .relstage.yaml in the git root.
	SourceLocal Source = "local"

	// SourceEnv indicates the value came from an environment variable.
	SourceEnv Source = "env"

	// SourceFlag indicates the value was set via command-line flag.
	SourceFlag Source = "flag"

	// SourceDerived indicates the value was computed after resolution,
	// for example a commit read from git or a remote URL lookup.
	SourceDerived Source = "derived"
)

// Describe renders a key's source for display, including the file or
// variable it was read from when known.
func (c *Resolved) Describe(key string) string {
	src := c.Source(key)
	if src == "" {
		return "unset"
	}
	if origin := c.Origin(key); origin != "" {
		return string(src) + " (" + origin + ")"
	}
	return string(src)
}
