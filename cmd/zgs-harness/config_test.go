// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/zgs-harness/harness"
)

func TestEnvToKey(t *testing.T) {
	require.Equal(t, "scenario", envToKey("ZGS_HARNESS_SCENARIO"))
	require.Equal(t, "log-level", envToKey("ZGS_HARNESS_LOG_LEVEL"))
	require.Equal(t, "harness.root-dir", envToKey("ZGS_HARNESS_HARNESS__ROOT_DIR"))
	require.Equal(t, "harness.rpc.timeout", envToKey("ZGS_HARNESS_HARNESS__RPC__TIMEOUT"))
}

func TestParseHarnessCLIDefaults(t *testing.T) {
	config, err := parseHarnessCLI(nil)
	require.NoError(t, err)
	require.Equal(t, "example", config.Scenario)
	require.False(t, config.List)
	require.Equal(t, harness.DefaultConfig.RootDir, config.Harness.RootDir)
	require.Equal(t, harness.DefaultConfig.StartupTimeout, config.Harness.StartupTimeout)
	require.Equal(t, harness.DefaultConfig.BootnodeID, config.Harness.BootnodeID)
}

func TestParseHarnessCLIFlags(t *testing.T) {
	config, err := parseHarnessCLI([]string{
		"--scenario", "cache",
		"--harness.root-dir", "/var/lib/zgs-harness",
		"--harness.startup-timeout", "5s",
		"--harness.rpc.timeout", "2s",
	})
	require.NoError(t, err)
	require.Equal(t, "cache", config.Scenario)
	require.Equal(t, "/var/lib/zgs-harness", config.Harness.RootDir)
	require.Equal(t, 5*time.Second, config.Harness.StartupTimeout)
	require.Equal(t, 2*time.Second, config.Harness.RPC.Timeout)
	// Untouched values keep their defaults.
	require.Equal(t, harness.DefaultConfig.StorageBinary, config.Harness.StorageBinary)
}

func TestParseHarnessCLIEnv(t *testing.T) {
	t.Setenv("ZGS_HARNESS_SCENARIO", "network-discovery")
	t.Setenv("ZGS_HARNESS_HARNESS__STARTUP_TIMEOUT", "7s")

	config, err := parseHarnessCLI(nil)
	require.NoError(t, err)
	require.Equal(t, "network-discovery", config.Scenario)
	require.Equal(t, 7*time.Second, config.Harness.StartupTimeout)

	// An explicit flag wins over the environment.
	config, err = parseHarnessCLI([]string{"--scenario", "cache"})
	require.NoError(t, err)
	require.Equal(t, "cache", config.Scenario)
}