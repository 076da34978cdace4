package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionKey(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		in      string
		want    Position
		wantErr bool
	}{
		{name: "canonical key", in: "10,64,-5", want: Position{X: 10, Y: 64, Z: -5}},
		{name: "spaces are trimmed", in: " 1, 2 ,3 ", want: Position{X: 1, Y: 2, Z: 3}},
		{name: "fractions floor toward negative infinity", in: "-0.5,64.9,-3.5", want: Position{X: -1, Y: 64, Z: -4}},
		{name: "positive fractions floor down", in: "0.5,0,2.999", want: Position{X: 0, Y: 0, Z: 2}},
		{name: "two components", in: "1,2", wantErr: true},
		{name: "not a number", in: "a,2,3", wantErr: true},
		{name: "NaN component", in: "NaN,0,0", wantErr: true},
		{name: "infinite component", in: "0,+Inf,0", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePositionKey(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			if tc.want.Key() == tc.in {
				assert.Equal(t, tc.in, got.Key())
			}
		})
	}
}
