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

package main

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dme/dmexfer/auth"
	"github.com/dme/dmexfer/config"
	"github.com/dme/dmexfer/journal"
)

// settings that may be given on the command line or in DME_* environment
// variables, overriding the settings file
var overrides = []struct {
	key, flag, usage string
}{
	{"files.endpoints", "endpoints-file", "JSON file describing the DME endpoints"},
	{"files.tokens", "tokens-file", "file in which Globus tokens are cached"},
	{"files.journal", "journal-file", "transfer journal (set to \"\" to keep no journal)"},
}

// state shared by the subcommands of a single invocation
type app struct {
	v    *viper.Viper
	conf config.Config
}

// newRootCommand assembles the dme command tree. Each call returns an
// independent tree with its own flag and environment bindings.
func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("dme")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "dme",
		Short: "Transfer data to and from DME endpoints with Globus",
		Long: `dme submits Globus transfers between DME endpoints (listed by index in the
endpoint data file) and other Globus collections (given by ID), and reports
on the resulting tasks. The first command run logs into Globus and caches
the resulting tokens.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML settings file (defaults are used if omitted)")
	flags.Bool("debug", false, "log debugging information")
	for _, o := range overrides {
		flags.String(o.flag, "", o.usage)
	}
	bindFlag(a.v, "config", flags.Lookup("config"))
	bindFlag(a.v, "debug", flags.Lookup("debug"))
	for _, o := range overrides {
		bindFlag(a.v, o.key, flags.Lookup(o.flag))
	}
	// the encryption key is only accepted from the environment
	if err := a.v.BindEnv("tokens.encryption_key"); err != nil {
		log.Panicf("Couldn't bind environment: %s", err)
	}

	rootCmd.AddCommand(
		a.submitCommand(),
		a.statusCommand(),
		a.endpointsCommand(),
		a.historyCommand(),
		a.logoutCommand(),
	)
	return rootCmd
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		log.Panicf("Couldn't bind flag for %s: %s", key, err)
	}
}

// sets the log level and loads the settings for the invocation
func (a *app) initialize(cmd *cobra.Command, args []string) error {
	if a.v.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	log.SetOutput(cmd.ErrOrStderr())

	conf, err := config.Read(a.v.GetString("config"))
	if err != nil {
		return err
	}
	for _, o := range overrides {
		if !a.v.IsSet(o.key) {
			continue
		}
		value := a.v.GetString(o.key)
		log.Debugf("Setting %s to '%s'", o.key, value)
		switch o.key {
		case "files.endpoints":
			conf.Files.Endpoints = value
		case "files.tokens":
			conf.Files.Tokens = value
		case "files.journal":
			conf.Files.Journal = value
		}
	}
	if a.v.IsSet("tokens.encryption_key") {
		conf.Tokens.EncryptionKey = a.v.GetString("tokens.encryption_key")
	}
	if err = conf.Validate(); err != nil {
		return err
	}
	a.conf = conf
	return nil
}

// returns the token cache named in the settings
func (a *app) tokenStore() (*auth.TokenStore, error) {
	return auth.NewTokenStore(a.conf.Files.Tokens, a.conf.Tokens.EncryptionKey)
}

// returns a gate that logs in through the command's terminal streams
func (a *app) gate(cmd *cobra.Command) (*auth.Gate, error) {
	store, err := a.tokenStore()
	if err != nil {
		return nil, err
	}
	return auth.NewGate(a.conf.Globus, store, cmd.InOrStdin(), cmd.OutOrStdout()), nil
}

// opens the transfer journal, or returns nil if none is configured
func (a *app) openJournal() (*journal.Journal, error) {
	if a.conf.Files.Journal == "" {
		return nil, nil
	}
	j, err := journal.Open(a.conf.Files.Journal)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open the transfer journal")
	}
	return j, nil
}
