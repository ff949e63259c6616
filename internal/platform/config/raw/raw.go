// Package raw reads prefixed environment variables for code that runs before
// the logger exists. It must not import the logger package
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf reads env vars under a fixed prefix such as "LOG_"
type Conf struct{ prefix string }

// New returns a Conf with no prefix
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(c.prefix + key))
}

// Get returns the trimmed value of key, or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// GetBool treats 1, true, yes and on as true, case-insensitively. Unset is def
func (c Conf) GetBool(key string, def bool) bool {
	switch strings.ToLower(c.lookup(key)) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// GetInt returns a non-negative decimal value of key. Signs, junk and
// overflow fall back to def
func (c Conf) GetInt(key string, def int) int {
	s := c.lookup(key)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
