package solution

import "strings"

// ConfigurationMap is an insertion-ordered map with case-insensitive keys.
// Keys have the form "<Config>|<Platform>.<Suffix>".
type ConfigurationMap struct {
	keys   []string
	values map[string]string // lower-cased key -> value
}

// NewConfigurationMap creates an empty map
func NewConfigurationMap() *ConfigurationMap {
	return &ConfigurationMap{values: make(map[string]string)}
}

// Set stores value under key, keeping the original key position on overwrite
func (m *ConfigurationMap) Set(key, value string) {
	lk := strings.ToLower(key)
	if _, ok := m.values[lk]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[lk] = value
}

// Get returns the value for key
func (m *ConfigurationMap) Get(key string) (string, bool) {
	v, ok := m.values[strings.ToLower(key)]
	return v, ok
}

// Has reports whether key is present
func (m *ConfigurationMap) Has(key string) bool {
	_, ok := m.values[strings.ToLower(key)]
	return ok
}

// Delete removes key
func (m *ConfigurationMap) Delete(key string) {
	lk := strings.ToLower(key)
	if _, ok := m.values[lk]; !ok {
		return
	}
	delete(m.values, lk)
	for i, k := range m.keys {
		if strings.ToLower(k) == lk {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (m *ConfigurationMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries
func (m *ConfigurationMap) Len() int {
	return len(m.keys)
}

// SplitConfigurationKey splits "Debug|AnyCPU.Build.0" into
// (Configuration{Debug, AnyCPU}, "Build.0"). The suffix starts at the first
// dot after the platform separator.
func SplitConfigurationKey(key string) (Configuration, string) {
	bar := strings.Index(key, "|")
	if bar < 0 {
		name, suffix, _ := strings.Cut(key, ".")
		return Configuration{Name: name}, suffix
	}
	dot := strings.Index(key[bar:], ".")
	if dot < 0 {
		return ParseConfiguration(key), ""
	}
	return ParseConfiguration(key[:bar+dot]), key[bar+dot+1:]
}
