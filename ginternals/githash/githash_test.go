package githash_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc        string
		id          string
		expectError bool
	}{
		{
			desc: "valid oid should work",
			id:   "0eaf966ff79d8f61958aaefe163620d952606516",
		},
		{
			desc:        "invalid char should fail",
			id:          "0eaf96 ff79d8f61958aaefe163620d952606516",
			expectError: true,
		},
		{
			desc:        "invalid size should fail",
			id:          "0eaf96ff79d8f61958aaefe163620d952606",
			expectError: true,
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			oid, err := githash.ParseString(tc.id)
			if tc.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, githash.ErrInvalidOid), "invalid error returned: %s", err.Error())
				assert.True(t, oid.IsZero(), "oid should be Zero")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.id, oid.String())
			assert.False(t, oid.IsZero())

			fromChars, err := githash.ParseChars([]byte(tc.id))
			require.NoError(t, err)
			assert.Equal(t, oid, fromChars)

			fromBytes, err := githash.ParseBytes(oid.Bytes())
			require.NoError(t, err)
			assert.Equal(t, oid, fromBytes)
		})
	}
}

func TestSum(t *testing.T) {
	t.Parallel()

	// echo -n "blob 0\0" | sha1sum
	oid := githash.Sum([]byte("blob 0\x00"))
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", oid.String())
}
