// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc_test

import (
	"testing"

	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallRepliesOnce(t *testing.T) {
	var replies [][]any

	call := rpc.NewCall("Read", nil, func(values []any, err error) {
		assert.NoError(t, err)

		replies = append(replies, values)
	})

	assert.False(t, call.Replied())

	call.Return([]byte("abc"))
	call.Fail(assert.AnError)
	call.Return()

	assert.True(t, call.Replied())
	assert.Equal(t, [][]any{{[]byte("abc")}}, replies)
}

func TestCallWithoutReply(t *testing.T) {
	call := rpc.NewCall("Write", nil, nil)

	call.Return()
	assert.True(t, call.Replied())
}

func TestArg(t *testing.T) {
	call := rpc.NewCall("Update", []any{int32(5), uint32(256)}, nil)

	x, err := rpc.Arg[int32](call, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(5), x)

	tests := []struct {
		name     string
		get      func() error
		expected string
	}{
		{
			name: "wrong type",
			get: func() error {
				_, err := rpc.Arg[int32](call, 1)
				return err
			},
			expected: "Update: argument 1 has type uint32, want int32",
		},
		{
			name: "missing",
			get: func() error {
				_, err := rpc.Arg[[]byte](call, 2)
				return err
			},
			expected: "Update: argument 2 missing, want []uint8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.get()
			require.ErrorIs(t, err, &rpc.ArgError{})
			assert.EqualError(t, err, tt.expected)
		})
	}
}
