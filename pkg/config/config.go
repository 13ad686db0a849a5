/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads SD-JWT profiles from YAML or JSON and from SDJWT_* environment variables.
package config

import (
	"io"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var logger = log.New("aries-sdjwt/config")

type options struct {
	envPrefix string
}

const (
	cmdRoot = "SDJWT"
)

// Option configures the package.
type Option func(opts *options)

// WithEnvPrefix defines the prefix for environment variable overrides.
func WithEnvPrefix(prefix string) Option {
	return func(opts *options) {
		opts.envPrefix = prefix
	}
}

// FromReader loads a profile from in.
// configType can be "json" or "yaml".
func FromReader(in io.Reader, configType string, opts ...Option) (*Profile, error) {
	if configType == "" {
		return nil, errors.New("empty config type")
	}

	v := newViper(opts...)

	// read config from bytes array, but must set ConfigType
	// for viper to properly unmarshal the bytes array
	v.SetConfigType(configType)

	if err := v.MergeConfig(in); err != nil {
		return nil, errors.Wrap(err, "viper MergeConfig failed")
	}

	return load(v)
}

// FromFile loads a profile from the named config file.
func FromFile(name string, opts ...Option) (*Profile, error) {
	if name == "" {
		return nil, errors.New("filename is required")
	}

	v := newViper(opts...)
	v.SetConfigFile(name)

	if err := v.MergeInConfig(); err != nil {
		return nil, errors.Wrap(err, "loading config file failed")
	}

	return load(v)
}

// FromEnv loads a profile from environment variables only.
func FromEnv(opts ...Option) (*Profile, error) {
	return load(newViper(opts...))
}

func newViper(opts ...Option) *viper.Viper {
	o := options{
		envPrefix: cmdRoot,
	}

	for _, option := range opts {
		option(&o)
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvs(v, reflect.TypeOf(Profile{}), "")

	return v
}

// bindEnvs registers every profile key so that Unmarshal sees values set only in the environment.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		key := field.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}

		if prefix != "" {
			key = prefix + "." + key
		}

		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			bindEnvs(v, field.Type, key)

			continue
		}

		_ = v.BindEnv(key) //nolint:errcheck
	}
}

func load(v *viper.Viper) (*Profile, error) {
	p := &Profile{}

	if err := defaults.Set(p); err != nil {
		return nil, errors.Wrap(err, "set profile defaults")
	}

	if err := v.Unmarshal(p); err != nil {
		return nil, errors.Wrap(err, "unmarshal profile")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	logger.Debugf("loaded profile: digest algorithm %s, decoys %d, max depth %d",
		p.DigestAlgorithm, p.DecoyDigestCount, p.MaxDepth)

	return p, nil
}

// Validate checks the profile fields.
func (p *Profile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return errors.Wrap(err, "invalid profile")
	}

	if _, err := p.Structure(); err != nil {
		return err
	}

	if _, err := p.Level(); err != nil {
		return errors.Wrap(err, "invalid profile")
	}

	return nil
}
