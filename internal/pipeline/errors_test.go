package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind stage and message",
			err:  NewInvariantError(StagePrune, "3 missing values remain after cleaning"),
			want: "[invariant] prune: 3 missing values remain after cleaning",
		},
		{
			name: "cause is appended",
			err:  NewIOError(StageHarvest, "failed to open archive On_Time_2022_1.zip", fs.ErrNotExist),
			want: "[io] harvest: failed to open archive On_Time_2022_1.zip: file does not exist",
		},
		{
			name: "no stage",
			err:  &Error{Kind: ErrorKindParse, Message: "header missing"},
			want: "[parse] header missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := NewIOError(StageHarvest, "failed to open archive", cause)

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, cause, err.Unwrap())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "direct pipeline error",
			err:  NewGateError(StageGate, "skew too large", nil),
			want: ErrorKindGate,
		},
		{
			name: "wrapped pipeline error",
			err:  fmt.Errorf("run failed: %w", NewParseError(StageNormalize, "bad cell", nil)),
			want: ErrorKindParse,
		},
		{
			name: "foreign error defaults to io",
			err:  errors.New("disk on fire"),
			want: ErrorKindIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("run failed: %w", NewGateError(StageGate, "skew too large", map[string]interface{}{
		"dimension": "OriginState",
		"group":     "MT",
		"skew":      17.3,
	}))

	assert.True(t, IsKind(err, ErrorKindGate))
	assert.False(t, IsKind(err, ErrorKindIO))
	assert.False(t, IsKind(errors.New("plain"), ErrorKindIO))

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "MT", pErr.Context["group"])
}
