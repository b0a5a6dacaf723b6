package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Runner is the full runner configuration. The client secret lives here,
// which is why the file store saves with mode 0600.
type Runner struct {
	Admin struct {
		ClientID     string `yaml:"clientId" json:"clientId" validate:"required"`
		ClientSecret string `yaml:"clientSecret" json:"clientSecret" validate:"required"`
	} `yaml:"admin" json:"admin"`

	Sites struct {
		ListPath string `yaml:"listPath" json:"listPath" validate:"required"`
	} `yaml:"sites" json:"sites"`

	Retry struct {
		MaxRetries            int `yaml:"maxRetries" json:"maxRetries" validate:"gte=1"`
		InitialBackoffSeconds int `yaml:"initialBackoffSeconds" json:"initialBackoffSeconds" validate:"gte=1"`
	} `yaml:"retry" json:"retry"`

	// Policy is the document written by the set-policy operation.
	Policy struct {
		SharingCapability        string `yaml:"sharingCapability" json:"sharingCapability"`
		DenyAddAndCustomizePages bool   `yaml:"denyAddAndCustomizePages" json:"denyAddAndCustomizePages"`
		StorageQuotaMB           int64  `yaml:"storageQuotaMb" json:"storageQuotaMb" validate:"gte=0"`
	} `yaml:"policy" json:"policy"`

	Report struct {
		LogPath     string `yaml:"logPath" json:"logPath"`
		ArtifactDir string `yaml:"artifactDir" json:"artifactDir"`
		Kafka       Kafka  `yaml:"kafka" json:"kafka"`
	} `yaml:"report" json:"report"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Brokers []string `yaml:"brokers" json:"brokers" validate:"required_if=Enabled true"`
	Topic   string   `yaml:"topic" json:"topic" validate:"required_if=Enabled true"`
}

// Default returns a Runner with the retry defaults filled in.
func Default() Runner {
	var r Runner
	r.Retry.MaxRetries = 5
	r.Retry.InitialBackoffSeconds = 30
	r.Report.LogPath = "siteops.log"
	r.Report.ArtifactDir = "runs"
	return r
}

func (r *Runner) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(r); err != nil {
		return fmt.Errorf("invalid runner configuration: %w", err)
	}
	return nil
}

// InitialBackoff converts the configured seconds into a duration.
func (r *Runner) InitialBackoff() time.Duration {
	return time.Duration(r.Retry.InitialBackoffSeconds) * time.Second
}

// LoadRunner reads the runner configuration from store on top of the
// defaults and validates it.
func LoadRunner(store Store) (Runner, error) {
	cfg := Default()
	if err := store.Load(&cfg); err != nil {
		return Runner{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Runner{}, err
	}
	return cfg, nil
}
