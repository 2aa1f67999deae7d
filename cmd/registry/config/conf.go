package config

import (
	"os"
	"reflect"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/craterio/registry"
)

// Config holds the complete server configuration
type Config struct {
	Server            registry.ServerConf `yaml:"server"`
	Storage           storageConf         `yaml:"storage"`
	Caching           cachingConf         `yaml:"caching"`
	Logging           loggingConf         `yaml:"logging"`
	API               apiConf             `yaml:"api"`
	TrustedPublishing trustpubConf        `yaml:"trusted_publishing"`
}

type configValidator interface {
	validate() error
}

var conf Config

// Get returns the loaded Config
func Get() *Config {
	return &conf
}

var possibleConfigLocations = []string{
	"config.yaml",
	"/etc/registry/config.yaml",
}

// Load loads the configuration from the passed file, or from one of the
// default locations if no file is given.
func Load(file string) {
	if file == "" {
		for _, candidate := range possibleConfigLocations {
			if fileutils.FileExists(candidate) {
				file = candidate
				break
			}
		}
	}
	if file == "" {
		log.Fatal("no config file found")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		log.WithError(err).Fatal("could not read config file")
	}
	conf = Config{
		Server:            registry.ServerConf{Port: 8080},
		Storage:           defaultStorageConf,
		Logging:           defaultLoggingConf,
		API:               defaultAPIConf,
		TrustedPublishing: defaultTrustpubConf,
	}
	if err = yaml.Unmarshal(data, &conf); err != nil {
		log.WithError(err).Fatal("could not parse config file")
	}
	deriveDefaults(&conf)
	if err = validate(&conf); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
}

// deriveDefaults fills in settings whose default depends on other settings.
func deriveDefaults(c *Config) {
	if c.TrustedPublishing.Audience == "" {
		c.TrustedPublishing.Audience = c.Server.Domain
	}
}

func validate(c *Config) error {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fieldVal := v.Field(i)
		if !fieldVal.CanAddr() {
			continue
		}
		if validator, ok := fieldVal.Addr().Interface().(configValidator); ok {
			if err := validator.validate(); err != nil {
				return errors.Errorf("validation failed for field '%s': %s", t.Field(i).Name, err.Error())
			}
		}
	}
	return nil
}
