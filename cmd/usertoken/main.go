/*
 * Copyright 2022 Michael Graff.
 *
 * Licensed under the Apache License, Version 2.0 (the "License")
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/skandragon/usertoken"
)

// KeyFlags locate the PEM key files.  They are shared by every command
// that touches keys.
type KeyFlags struct {
	PublicKey  string `name:"public-key" env:"USERTOKEN_PUBLIC_KEY" type:"path" help:"PEM file holding the public key."`
	PrivateKey string `name:"private-key" env:"USERTOKEN_PRIVATE_KEY" type:"path" help:"PEM file holding the private key."`
	KeyID      string `name:"key-id" env:"USERTOKEN_KEY_ID" default:"k1" help:"Key id placed in token headers and the key set."`
	Cache      bool   `name:"cache" help:"Parse the key files again only when their content changes."`
}

// Source returns the key source described by the flags.
func (f *KeyFlags) Source() usertoken.KeySource {
	files := usertoken.FileSource{
		PublicKeyPath:  f.PublicKey,
		PrivateKeyPath: f.PrivateKey,
		KeyID:          f.KeyID,
	}
	if f.Cache {
		return usertoken.NewCachingSource(files)
	}
	return &files
}

type CLI struct {
	KeyFlags `embed:""`

	Debug     bool `help:"Enable debug logging."`
	CheckKeys bool `name:"check-keys" help:"Load the key pair before running the command and fail early if it is unusable."`

	Keygen KeygenCmd `cmd:"" help:"Generate an RSA key pair as PEM files."`
	Issue  IssueCmd  `cmd:"" help:"Issue a token for a user."`
	Verify VerifyCmd `cmd:"" help:"Verify a token and print its claims."`
	Jwks   JwksCmd   `cmd:"" name:"jwks" help:"Print the public key set."`
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	// a missing .env is fine; the environment and flags still apply
	_ = godotenv.Load()

	var cli CLI
	cliCtx := kong.Parse(&cli,
		kong.Name("usertoken"),
		kong.Description("Issue and verify user identity tokens."),
		kong.UsageOnError(),
	)

	logger, err := newLogger(cli.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cli.CheckKeys {
		if _, err := cli.KeyFlags.Source().KeyPair(); err != nil {
			logger.Error("key check failed", zap.Error(err))
			os.Exit(1)
		}
	}

	cliCtx.Bind(logger, &cli.KeyFlags)
	cliCtx.BindTo(os.Stdout, (*io.Writer)(nil))

	if err := cliCtx.Run(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
