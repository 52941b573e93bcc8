// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/offchainlabs/zgs-harness/submission"
)

// Contract is the log entry contract as the harness uses it: submit a file's
// merkle commitment and count what has been accepted so far.
type Contract interface {
	Submit(ctx context.Context, sub *submission.Submission) error
	NumSubmissions(ctx context.Context) (uint64, error)
}

// FlowABI covers the two entry points the harness exercises. The submission
// tuple mirrors the on-chain layout: total length in chunks is derived by the
// contract, so only byte length, data root, tags and the subtree decomposition
// travel in the call.
const FlowABI = `[
  {
    "type": "function",
    "name": "submit",
    "stateMutability": "nonpayable",
    "inputs": [
      {
        "name": "submission",
        "type": "tuple",
        "components": [
          {"name": "length", "type": "uint256"},
          {"name": "dataRoot", "type": "bytes32"},
          {"name": "tags", "type": "bytes"},
          {
            "name": "nodes",
            "type": "tuple[]",
            "components": [
              {"name": "root", "type": "bytes32"},
              {"name": "height", "type": "uint256"}
            ]
          }
        ]
      }
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "numSubmissions",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  }
]`

type flowSubmissionNode struct {
	Root   [32]byte
	Height *big.Int
}

type flowSubmission struct {
	Length   *big.Int
	DataRoot [32]byte
	Tags     []byte
	Nodes    []flowSubmissionNode
}

// FlowContract talks to the deployed flow contract with the dev account.
type FlowContract struct {
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	backend  *ethclient.Client
}

func NewFlowContract(cfg *Config, backend *ethclient.Client) (*FlowContract, error) {
	parsed, err := abi.JSON(strings.NewReader(FlowABI))
	if err != nil {
		return nil, errors.Wrap(err, "parsing flow abi")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.DevPrivateKey, "0x"))
	if err != nil {
		return nil, configErrf("invalid dev private key: %v", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(cfg.ChainID))
	if err != nil {
		return nil, errors.Wrap(err, "building transactor")
	}
	address := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(address, parsed, backend, backend, backend)
	return &FlowContract{
		contract: contract,
		auth:     auth,
		backend:  backend,
	}, nil
}

func (f *FlowContract) Submit(ctx context.Context, sub *submission.Submission) error {
	nodes := make([]flowSubmissionNode, len(sub.Nodes))
	for i, node := range sub.Nodes {
		nodes[i] = flowSubmissionNode{Root: node.Root, Height: node.Height}
	}
	opts := *f.auth
	opts.Context = ctx
	tx, err := f.contract.Transact(&opts, "submit", flowSubmission{
		Length:   sub.Length,
		DataRoot: sub.DataRoot,
		Tags:     sub.Tags,
		Nodes:    nodes,
	})
	if err != nil {
		return errors.Wrap(err, "submitting to flow contract")
	}
	receipt, err := bind.WaitMined(ctx, f.backend, tx)
	if err != nil {
		return errors.Wrap(err, "waiting for submit tx")
	}
	if receipt.Status != 1 {
		return errors.Errorf("submit tx %s reverted", tx.Hash())
	}
	return nil
}

func (f *FlowContract) NumSubmissions(ctx context.Context) (uint64, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := f.contract.Call(opts, &out, "numSubmissions"); err != nil {
		return 0, errors.Wrap(err, "querying numSubmissions")
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.New("unexpected numSubmissions result type")
	}
	return count.Uint64(), nil
}
