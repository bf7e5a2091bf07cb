// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

import "fmt"

// UnknownValue is reported for metadata the build did not inject.
const UnknownValue = "unknown"

// Context contains build-time metadata that is not user-configurable.
// It is injected at startup through -ldflags.
type Context struct {
	version   string
	buildDate string
	commit    string
}

// NewContext creates a build context.
func NewContext(version, buildDate, commit string) *Context {
	return &Context{
		version:   version,
		buildDate: buildDate,
		commit:    commit,
	}
}

// Version returns the release version.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns when the binary was built.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// Commit returns the source revision.
func (c *Context) Commit() string {
	if c == nil || c.commit == "" {
		return UnknownValue
	}
	return c.commit
}

// Release returns the identifier reported to error telemetry.
func (c *Context) Release() string {
	return "mediastore@" + c.Version()
}

// String formats the metadata for --version output.
func (c *Context) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", c.Version(), c.Commit(), c.BuildDate())
}
