// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/zgs-harness/submission"
	"github.com/offchainlabs/zgs-harness/util/testhelpers"
)

func TestFlowABIPacksSubmission(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(FlowABI))
	require.NoError(t, err)

	data := testhelpers.RandomSlice(262400)
	sub, _, err := submission.NewSubmission(data, nil)
	require.NoError(t, err)

	nodes := make([]flowSubmissionNode, len(sub.Nodes))
	for i, node := range sub.Nodes {
		nodes[i] = flowSubmissionNode{Root: node.Root, Height: node.Height}
	}
	packed, err := parsed.Pack("submit", flowSubmission{
		Length:   sub.Length,
		DataRoot: sub.DataRoot,
		Tags:     sub.Tags,
		Nodes:    nodes,
	})
	require.NoError(t, err)

	method, ok := parsed.Methods["submit"]
	require.True(t, ok)
	require.Equal(t, method.ID, packed[:4])

	unpacked, err := method.Inputs.Unpack(packed[4:])
	require.NoError(t, err)
	require.Len(t, unpacked, 1)

	// The tuple survives the round trip field by field.
	values := unpacked[0]
	repacked, err := method.Inputs.Pack(values)
	require.NoError(t, err)
	require.Equal(t, packed[4:], repacked)
}

func TestFlowABIHasNumSubmissions(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(FlowABI))
	require.NoError(t, err)

	method, ok := parsed.Methods["numSubmissions"]
	require.True(t, ok)
	require.Empty(t, method.Inputs)
	require.Len(t, method.Outputs, 1)
	require.Equal(t, "uint256", method.Outputs[0].Type.String())
}
