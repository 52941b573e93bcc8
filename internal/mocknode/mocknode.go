// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

// Package mocknode hosts a storage node's RPC surface without the storage
// engine behind it. Tests point the harness at it to exercise lifecycle,
// upload and polling logic with the observable semantics of the real node:
// a root is unknown until uploaded or announced, cached while it only lives
// in the pre-commit buffer, and finalized once every segment implied by the
// announced size has arrived.
package mocknode

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/offchainlabs/zgs-harness/rpcclient"
	"github.com/offchainlabs/zgs-harness/submission"
)

type fileState struct {
	size      uint64
	announced bool
	segments  map[uint64]bool
}

// StorageService implements the zgs namespace.
type StorageService struct {
	mu    sync.Mutex
	files map[common.Hash]*fileState
	peers rpcclient.NetworkInfo
}

func NewStorageService() *StorageService {
	return &StorageService{files: make(map[common.Hash]*fileState)}
}

func (s *StorageService) GetStatus() (*rpcclient.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &rpcclient.Status{ConnectedPeers: s.peers.ConnectedPeers}, nil
}

func (s *StorageService) UploadSegment(segment *submission.Segment) error {
	if err := segment.Verify(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.files[segment.Root]
	if state == nil {
		state = &fileState{size: segment.FileSize, segments: make(map[uint64]bool)}
		s.files[segment.Root] = state
	}
	if state.size != segment.FileSize {
		return fmt.Errorf("file size mismatch for %v: %d vs %d", segment.Root, state.size, segment.FileSize)
	}
	state.segments[segment.Index] = true
	return nil
}

func (s *StorageService) GetFileInfo(root common.Hash) (*rpcclient.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.files[root]
	if state == nil {
		return nil, nil
	}
	complete := uint64(len(state.segments)) == submission.NumSegments(state.size)
	return &rpcclient.FileInfo{
		Finalized:      state.announced && complete,
		IsCached:       !state.announced,
		UploadedSegNum: uint64(len(state.segments)),
	}, nil
}

// Announce models the node observing the submission on-chain. Called by the
// in-memory contract stub.
func (s *StorageService) Announce(root common.Hash, size uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.files[root]
	if state == nil {
		state = &fileState{size: size, segments: make(map[uint64]bool)}
		s.files[root] = state
	}
	state.announced = true
}

// SetNetworkInfo replaces the peer counters reported by the admin namespace.
func (s *StorageService) SetNetworkInfo(info rpcclient.NetworkInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers = info
}

// AdminService implements the admin namespace over the same state.
type AdminService struct {
	storage *StorageService
}

func (s *AdminService) GetNetworkInfo() (*rpcclient.NetworkInfo, error) {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	info := s.storage.peers
	return &info, nil
}

// EthService answers the chain readiness probe.
type EthService struct{}

func (s *EthService) Syncing() (interface{}, error) {
	return false, nil
}

// StartServer serves the mock surface over HTTP on the given port. Port 0
// is rejected: callers allocate ports through util/ports so that clients
// and servers agree without runtime handshakes.
func StartServer(port int, storage *StorageService) (*node.Node, error) {
	if port == 0 {
		return nil, errors.New("mocknode: explicit port required")
	}
	stackConf := node.DefaultConfig
	stackConf.DataDir = ""
	stackConf.HTTPHost = "127.0.0.1"
	stackConf.HTTPPort = port
	stackConf.HTTPModules = []string{"zgs", "admin", "eth"}
	stackConf.WSHost = ""
	stackConf.P2P.NoDiscovery = true
	stackConf.P2P.ListenAddr = ""

	stack, err := node.New(&stackConf)
	if err != nil {
		return nil, err
	}
	stack.RegisterAPIs([]rpc.API{
		{Namespace: "zgs", Version: "1.0", Service: storage, Public: true},
		{Namespace: "admin", Version: "1.0", Service: &AdminService{storage: storage}, Public: true},
		{Namespace: "eth", Version: "1.0", Service: &EthService{}, Public: true},
	})
	if err := stack.Start(); err != nil {
		return nil, err
	}
	return stack, nil
}
