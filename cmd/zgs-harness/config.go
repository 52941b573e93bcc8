// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package main

import (
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

const envPrefix = "ZGS_HARNESS_"

// parseHarnessCLI layers configuration sources: defaults come from the flag
// definitions, the environment overrides them, explicit flags override both.
func parseHarnessCLI(args []string) (*HarnessCLIConfig, error) {
	f := flag.NewFlagSet("zgs-harness", flag.ContinueOnError)
	HarnessCLIConfigAddOptions(f)
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, errors.Wrap(err, "loading environment variables")
	}
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, errors.Wrap(err, "loading command line arguments")
	}

	var config HarnessCLIConfig
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &config,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag:           "koanf",
		DecoderConfig: &decoderConfig,
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return &config, nil
}

// envToKey maps ZGS_HARNESS_HARNESS__ROOT_DIR to harness.root-dir: double
// underscore descends a level, single underscore is a dash within a key.
func envToKey(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, envPrefix))
	name = strings.ReplaceAll(name, "__", ".")
	return strings.ReplaceAll(name, "_", "-")
}
