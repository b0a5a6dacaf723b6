// Package configstore defines the storage contract shared by the file and
// MongoDB configuration backends.
package configstore

type ConfigStore interface {
	// Load decodes the stored configuration into out.
	Load(out any) error
	// Save persists data, replacing any previous configuration.
	Save(data any) error
}
