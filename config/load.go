package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Conf holds the backend settings of the triage engine. Values are read
// from the configuration file and can be overridden by environment variables.
type Conf struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`

	Workers    int `yaml:"workers"`
	MaxResults int `yaml:"max_results"`
}

const (
	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"

	defaultWorkers    = 3
	defaultMaxResults = 3
)

// GetConfDir returns the data folder of vulntriage
func GetConfDir() (string, error) {
	var dir string
	var err error

	if runtime.GOOS == "windows" {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "vulntriagedata"), nil
	}

	dir, err = os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".vulntriage"), nil
}

// Load reads config.yaml from the vulntriage folder. A missing file is not
// an error, the defaults are used and the environment can fill the rest.
func Load() (*Conf, error) {
	conf := &Conf{
		BaseURL:    defaultBaseURL,
		Model:      defaultModel,
		Workers:    defaultWorkers,
		MaxResults: defaultMaxResults,
	}

	dir, err := GetConfDir()
	if err != nil {
		return conf, err
	}

	filename := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, conf); err != nil {
			return conf, err
		}
	}

	if v := os.Getenv("VULNTRIAGE_BASE_URL"); v != "" {
		conf.BaseURL = v
	}
	if v := os.Getenv("VULNTRIAGE_API_KEY"); v != "" {
		conf.APIKey = v
	}
	if v := os.Getenv("VULNTRIAGE_MODEL"); v != "" {
		conf.Model = v
	}

	if conf.Workers < 1 {
		conf.Workers = defaultWorkers
	}
	if conf.MaxResults < 1 {
		conf.MaxResults = defaultMaxResults
	}

	return conf, nil
}

// Validate only checks the presence of the required settings,
// the values are not interpreted here.
func (c *Conf) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is missing, set api_key in config.yaml or VULNTRIAGE_API_KEY")
	}
	if c.BaseURL == "" {
		return errors.New("base url is missing")
	}
	if c.Model == "" {
		return errors.New("model name is missing")
	}
	return nil
}
