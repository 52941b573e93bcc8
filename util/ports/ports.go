// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

// Package ports hands out listening ports for every service a test run
// spawns. Assignment is a pure function of (category, node index) so that
// independently started subsystems, including the Makefile that deploys the
// blockchain node, agree on ports without any shared runtime state.
package ports

import "fmt"

type Category int

const (
	StorageP2P Category = iota
	StorageDiscovery
	StorageRPC
	ChainHTTP
	ChainWS
	ChainMetrics
	ChainAuthRPC
	ConsensusRPC
	ConsensusP2P
	NodeAPI
	numCategories
)

const (
	base = 14000
	// MaxNodes bounds the node index so category ranges never overlap.
	MaxNodes = 100
)

func (c Category) String() string {
	switch c {
	case StorageP2P:
		return "storage-p2p"
	case StorageDiscovery:
		return "storage-discovery"
	case StorageRPC:
		return "storage-rpc"
	case ChainHTTP:
		return "chain-http"
	case ChainWS:
		return "chain-ws"
	case ChainMetrics:
		return "chain-metrics"
	case ChainAuthRPC:
		return "chain-authrpc"
	case ConsensusRPC:
		return "consensus-rpc"
	case ConsensusP2P:
		return "consensus-p2p"
	case NodeAPI:
		return "node-api"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Allocate returns the port for a service category of the node at the given
// index. It never queries the OS and returns the same value on every call.
// Panics on an out-of-range index: that is a harness programming error, not
// a runtime condition.
func Allocate(category Category, index int) int {
	if category < 0 || category >= numCategories {
		panic(fmt.Sprintf("ports: unknown category %d", int(category)))
	}
	if index < 0 || index >= MaxNodes {
		panic(fmt.Sprintf("ports: node index %d out of range [0, %d)", index, MaxNodes))
	}
	return base + int(category)*MaxNodes + index
}

// NumCategories reports how many service categories exist. Exposed for the
// collision tests.
func NumCategories() int {
	return int(numCategories)
}
