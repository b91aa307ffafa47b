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

package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// A record holding the OAuth2 tokens issued for one resource server (e.g.
// "transfer.api.globus.org").
type TokenRecord struct {
	ResourceServer   string `json:"resource_server"`
	Scope            string `json:"scope"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresAtSeconds int64  `json:"expires_at_seconds"`
}

// converts the record to a token usable with golang.org/x/oauth2
func (r TokenRecord) Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
	}
	if r.ExpiresAtSeconds > 0 {
		token.Expiry = time.Unix(r.ExpiresAtSeconds, 0)
	}
	return token
}

// builds a record for the given resource server from an oauth2 token
func recordFromToken(resourceServer, scope string, token *oauth2.Token) TokenRecord {
	record := TokenRecord{
		ResourceServer: resourceServer,
		Scope:          scope,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenType:      token.TokenType,
	}
	if !token.Expiry.IsZero() {
		record.ExpiresAtSeconds = token.Expiry.Unix()
	}
	return record
}

// TokenStore reads and writes the local token cache: a JSON object mapping
// resource server names to token records. If an encryption key is given, the
// file holds a Fernet token wrapping that JSON object.
type TokenStore struct {
	// path to the token cache
	Filename string
	// key for at-rest encryption (nil if the cache is plain JSON)
	key *fernet.Key
}

// creates a token store for the given file, encrypted with the given Fernet
// key unless the key is empty
func NewTokenStore(filename, encryptionKey string) (*TokenStore, error) {
	store := TokenStore{Filename: filename}
	if encryptionKey != "" {
		key, err := fernet.DecodeKey(encryptionKey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid token encryption key")
		}
		store.key = key
	}
	return &store, nil
}

// returns true if the token cache exists
func (s *TokenStore) Exists() bool {
	_, err := os.Stat(s.Filename)
	return err == nil
}

// reads every record in the token cache
func (s *TokenStore) Load() (map[string]TokenRecord, error) {
	data, err := os.ReadFile(s.Filename)
	if err != nil {
		return nil, err
	}
	if s.key != nil {
		data = fernet.VerifyAndDecrypt(data, 0, []*fernet.Key{s.key})
		if data == nil {
			return nil, &CorruptTokenFileError{
				Filename: s.Filename,
				Message:  "couldn't decrypt token cache with the configured key",
			}
		}
	}
	records := make(map[string]TokenRecord)
	if err = json.Unmarshal(data, &records); err != nil {
		return nil, &CorruptTokenFileError{Filename: s.Filename, Message: err.Error()}
	}
	return records, nil
}

// returns the record for the given resource server
func (s *TokenStore) Get(resourceServer string) (TokenRecord, error) {
	records, err := s.Load()
	if err != nil {
		return TokenRecord{}, err
	}
	record, found := records[resourceServer]
	if !found {
		return TokenRecord{}, &MissingTokenError{ResourceServer: resourceServer}
	}
	return record, nil
}

// merges the given records into the token cache, replacing any existing
// records for the same resource servers
func (s *TokenStore) Store(newRecords ...TokenRecord) error {
	records := make(map[string]TokenRecord)
	if s.Exists() {
		var err error
		if records, err = s.Load(); err != nil {
			return err
		}
	}
	for _, record := range newRecords {
		records[record.ResourceServer] = record
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if s.key != nil {
		data, err = fernet.EncryptAndSign(data, s.key)
		if err != nil {
			return errors.Wrap(err, "couldn't encrypt token cache")
		}
	}

	// write to a temporary file and rename it into place so a failed write
	// never leaves a truncated cache behind
	dir, base := filepath.Split(s.Filename)
	if dir == "" {
		dir = "."
	}
	tmpFile, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "unable to create a temporary token file")
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()
	if err = tmpFile.Chmod(0600); err != nil {
		return errors.Wrap(err, "unable to restrict permissions on the token file")
	}
	if _, err = tmpFile.Write(data); err != nil {
		return errors.Wrap(err, "unable to write tokens to the temporary file")
	}
	if err = tmpFile.Sync(); err != nil {
		return errors.Wrap(err, "unable to flush the temporary token file to disk")
	}
	if err = os.Rename(tmpFile.Name(), s.Filename); err != nil {
		return errors.Wrap(err, "unable to rename the temporary file to the token file")
	}
	return nil
}

// deletes the token cache, forcing a new login on the next invocation
func (s *TokenStore) Remove() error {
	err := os.Remove(s.Filename)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
