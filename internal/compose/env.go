package compose

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// KV is one key/value pair from a .env file.
type KV struct {
	Key   string
	Value string
}

// DotEnv is a parsed .env file: its key/value pairs in sorted-key order, so
// downstream consumption (substitution) is deterministic despite
// godotenv.Parse returning an unordered map.
type DotEnv []KV

// ParseDotEnv parses standard dotenv KEY=VALUE content. The result is an
// ordered DotEnv rather than the process environment, since the
// substitution target is compose YAML text. A malformed .env yields an
// empty DotEnv rather than failing the caller; undefined variables already
// expand to empty string downstream.
func ParseDotEnv(text string) DotEnv {
	values, err := godotenv.Parse(strings.NewReader(text))
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(DotEnv, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: values[k]})
	}
	return out
}

// Map collapses the ordered pairs into a lookup map; later keys win.
func (d DotEnv) Map() map[string]string {
	m := make(map[string]string, len(d))
	for _, kv := range d {
		m[kv.Key] = kv.Value
	}
	return m
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Substitute applies ${VAR} and $VAR replacement to yamlText using the
// values in env. Undefined variables expand to the empty string.
// Substitution is single-pass: a substituted value is not itself re-scanned
// for further variable references.
func Substitute(yamlText string, env DotEnv) string {
	values := env.Map()
	return varPattern.ReplaceAllStringFunc(yamlText, func(match string) string {
		groups := varPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		return values[name]
	})
}
