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

const (
	DefaultEndpointsFile = "dme_data.json"
	DefaultTokensFile    = ".dme_tokens.json"
	DefaultJournalFile   = ".dme_journal.db"
)

type FilesConfig struct {
	// JSON file describing the named (DME) endpoints
	Endpoints string `yaml:"endpoints"`
	// JSON file holding OAuth2 tokens, keyed by resource server
	Tokens string `yaml:"tokens"`
	// transfer journal (no journal is kept if empty)
	Journal string `yaml:"journal"`
}

type TokensConfig struct {
	// optional Fernet key used to encrypt the token cache at rest
	// DO NOT STORE THIS IN A CONFIG FILE! Use an environment variable instead
	EncryptionKey string `yaml:"encryption_key,omitempty"`
}
