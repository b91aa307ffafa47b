// Copyright (c) 2024 The DME Transfer Tool Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds every setting needed by a single invocation of the tool. It is
// built once in main and handed to the components that need it.
type Config struct {
	// Globus application and service locations
	Globus GlobusConfig `yaml:"globus"`
	// locations of local data files
	Files FilesConfig `yaml:"files"`
	// token cache settings
	Tokens TokensConfig `yaml:"tokens"`
}

// Default returns the configuration used when no settings file is given.
func Default() Config {
	return Config{
		Globus: GlobusConfig{
			ClientId:    uuid.MustParse(DefaultClientId),
			AppName:     DefaultAppName,
			GroupId:     uuid.MustParse(DefaultGroupId),
			AuthURL:     DefaultAuthURL,
			TransferURL: DefaultTransferURL,
			GroupsURL:   DefaultGroupsURL,
			WebURL:      DefaultWebURL,
		},
		Files: FilesConfig{
			Endpoints: DefaultEndpointsFile,
			Tokens:    DefaultTokensFile,
			Journal:   DefaultJournalFile,
		},
	}
}

// This helper parses the given YAML settings on top of the defaults. All
// environment variables of the form ${ENV_VAR} are expanded first.
func readConfig(bytes []byte) (Config, error) {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	conf := Default()
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		log.Debugf("Couldn't parse configuration data: %s", err)
		return Config{}, errors.Wrap(err, "couldn't parse configuration data")
	}
	return conf, nil
}

// This helper checks that the given string is an absolute URL we can send
// requests to.
func validateURL(name, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return &InvalidSettingError{Setting: name, Message: err.Error()}
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return &InvalidSettingError{
			Setting: name,
			Message: fmt.Sprintf("'%s' is not an absolute http(s) URL", value),
		}
	}
	return nil
}

// This helper validates the given configuration, returning an error that
// indicates success or failure.
func validateConfig(conf Config) error {
	var zeroId uuid.UUID
	if conf.Globus.ClientId == zeroId {
		return &InvalidSettingError{Setting: "globus.client_id", Message: "no client ID was given"}
	}
	if conf.Globus.GroupId == zeroId {
		return &InvalidSettingError{Setting: "globus.group_id", Message: "no access group ID was given"}
	}
	urls := []struct{ name, value string }{
		{"globus.auth_url", conf.Globus.AuthURL},
		{"globus.transfer_url", conf.Globus.TransferURL},
		{"globus.groups_url", conf.Globus.GroupsURL},
		{"globus.web_url", conf.Globus.WebURL},
	}
	for _, u := range urls {
		if err := validateURL(u.name, u.value); err != nil {
			return err
		}
	}

	if conf.Files.Endpoints == "" {
		return &InvalidSettingError{Setting: "files.endpoints", Message: "no endpoint data file was given"}
	}
	if conf.Files.Tokens == "" {
		return &InvalidSettingError{Setting: "files.tokens", Message: "no token cache file was given"}
	}

	if conf.Tokens.EncryptionKey != "" {
		if _, err := fernet.DecodeKey(conf.Tokens.EncryptionKey); err != nil {
			return &InvalidSettingError{Setting: "tokens.encryption_key", Message: err.Error()}
		}
	}
	return nil
}

// Init builds a configuration from the given YAML byte data and validates it.
func Init(yamlData []byte) (Config, error) {
	conf, err := readConfig(yamlData)
	if err != nil {
		return Config{}, err
	}
	if err = validateConfig(conf); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Read builds a configuration from the named settings file. An empty filename
// yields the default configuration.
func Read(filename string) (Config, error) {
	if filename == "" {
		conf := Default()
		return conf, validateConfig(conf)
	}
	log.Debugf("Reading configuration from '%s'", filename)
	b, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, errors.Wrapf(err, "couldn't read configuration file %s", filename)
	}
	return Init(b)
}

// Validate checks a configuration assembled or modified outside this package
// (e.g. by command-line overrides).
func (c Config) Validate() error {
	return validateConfig(c)
}
