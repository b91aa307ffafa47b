package config

// These tests verify that we can properly configure the transfer tool with
// YAML input.
import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// a valid globus config entry
const VALID_GLOBUS string = `
globus:
  client_id: 0f3a8c55-1b36-4c27-9d3b-6a0e8f7b2c11
  group_id: ${DME_TEST_GROUP_ID}
  auth_url: https://auth.example.org
  transfer_url: https://transfer.example.org/v0.10
  groups_url: https://groups.example.org/v2
  web_url: https://app.example.org
`

// a valid files config entry
const VALID_FILES string = `
files:
  endpoints: endpoints.json
  tokens: tokens.json
  journal: journal.db
`

// tests whether config.Init accepts blank input, falling back to defaults
func TestInitAcceptsBlankInput(t *testing.T) {
	assert := assert.New(t)
	conf, err := Init([]byte(""))
	assert.Nil(err, "Blank config triggered an error.")
	assert.Equal(Default(), conf)
	assert.Equal(DefaultTokensFile, conf.Files.Tokens)
	assert.Equal(uuid.MustParse(DefaultGroupId), conf.Globus.GroupId)
}

// tests whether environment variables are expanded before parsing
func TestInitExpandsEnvironment(t *testing.T) {
	assert := assert.New(t)
	groupId := "6a8d1e3c-2f54-4b1a-8c2d-93e0f1a7b456"
	t.Setenv("DME_TEST_GROUP_ID", groupId)
	conf, err := Init([]byte(VALID_GLOBUS + VALID_FILES))
	assert.Nil(err)
	assert.Equal(uuid.MustParse(groupId), conf.Globus.GroupId)
	assert.Equal("https://transfer.example.org/v0.10", conf.Globus.TransferURL)
	assert.Equal("endpoints.json", conf.Files.Endpoints)
	assert.Equal("journal.db", conf.Files.Journal)
	// unset fields keep their defaults
	assert.Equal(DefaultAppName, conf.Globus.AppName)
}

// tests whether config.Init rejects malformed YAML
func TestInitRejectsBadYAML(t *testing.T) {
	_, err := Init([]byte("globus: [this is not a map"))
	assert.NotNil(t, err, "Malformed config didn't trigger an error.")
}

// tests whether config.Init rejects a malformed client ID
func TestInitRejectsBadClientId(t *testing.T) {
	_, err := Init([]byte("globus:\n  client_id: not-a-uuid\n"))
	assert.NotNil(t, err, "Config with bad client ID didn't trigger an error.")
}

// tests whether config.Init rejects URLs we can't send requests to
func TestInitRejectsBadURLs(t *testing.T) {
	assert := assert.New(t)
	for _, yaml := range []string{
		"globus:\n  auth_url: auth.globus.org\n",
		"globus:\n  transfer_url: ftp://transfer.example.org\n",
		"globus:\n  groups_url: /v2\n",
	} {
		_, err := Init([]byte(yaml))
		assert.NotNil(err, "Config with bad URL didn't trigger an error: %s", yaml)
		var settingErr *InvalidSettingError
		assert.True(errors.As(err, &settingErr))
	}
}

// tests whether config.Init rejects an empty token cache filename
func TestInitRejectsNoTokenFile(t *testing.T) {
	_, err := Init([]byte("files:\n  tokens: \"\"\n"))
	assert.NotNil(t, err, "Config with no token file didn't trigger an error.")
}

// tests whether config.Init checks the token encryption key
func TestInitChecksEncryptionKey(t *testing.T) {
	assert := assert.New(t)
	_, err := Init([]byte("tokens:\n  encryption_key: bogus\n"))
	assert.NotNil(err, "Config with bad encryption key didn't trigger an error.")

	var key fernet.Key
	assert.Nil(key.Generate())
	conf, err := Init([]byte("tokens:\n  encryption_key: " + key.Encode() + "\n"))
	assert.Nil(err)
	assert.Equal(key.Encode(), conf.Tokens.EncryptionKey)
}

// tests whether config.Read handles missing and present settings files
func TestRead(t *testing.T) {
	assert := assert.New(t)

	conf, err := Read("")
	assert.Nil(err)
	assert.Equal(Default(), conf)

	dir := t.TempDir()
	_, err = Read(filepath.Join(dir, "missing.yaml"))
	assert.NotNil(err)

	filename := filepath.Join(dir, "dme.yaml")
	assert.Nil(os.WriteFile(filename, []byte(VALID_FILES), 0600))
	conf, err = Read(filename)
	assert.Nil(err)
	assert.Equal("tokens.json", conf.Files.Tokens)
}

// tests whether Validate catches settings broken after loading
func TestValidateOverrides(t *testing.T) {
	assert := assert.New(t)
	conf := Default()
	assert.Nil(conf.Validate())

	conf.Files.Endpoints = ""
	var invalid *InvalidSettingError
	assert.ErrorAs(conf.Validate(), &invalid)
	assert.Equal("files.endpoints", invalid.Setting)
}
