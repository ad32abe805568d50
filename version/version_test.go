package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantNum uint64
	}{
		{name: "semantic triple", input: "1.2.3", want: "1.2.3", wantNum: 1_002_003},
		{name: "leading v", input: "v2.0.0", want: "2.0.0", wantNum: 2_000_000},
		{name: "build number", input: "42", want: "42.0.0", wantNum: 42_000_000},
		{name: "major minor", input: "1.5", want: "1.5.0", wantNum: 1_005_000},
		{name: "surrounding spaces", input: " 0.0.7 ", want: "0.0.7", wantNum: 7},
		{name: "largest", input: "18446744073708.999.999", want: "18446744073708.999.999", wantNum: 18_446_744_073_708_999_999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
			assert.Equal(t, tt.wantNum, v.Num())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"abc",
		"1.2.3.4",
		"1.2.3-beta",
		"1.2.3+build5",
		"1.1000.0",
		"1.0.1000",
		"1..2",
		"-1.0.0",
		"18446744073709.0.0",
		"18446744073709.551.616",
		"18446744073710.0.0",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidVersion)
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"v1.0.0", "1", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.10", "1.0.9", 1},
		{"1.10.0", "1.9.999", 1},
		{"2.0.0", "1.999.999", 1},
		{"0.0.1", "0.1.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			a, b := MustParse(tt.a), MustParse(tt.b)
			assert.Equal(t, tt.want, Compare(a, b))
			assert.Equal(t, -tt.want, Compare(b, a), "comparison must be antisymmetric")
		})
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	// ascending
	raw := []string{
		"0.0.0", "0.0.1", "0.1.0", "0.999.999", "1.0.0", "1.0.1", "1.2.0", "2.0.0", "10.0.0",
		"18446744073707.999.999", "18446744073708.0.0", "18446744073708.999.998", "18446744073708.999.999",
	}
	versions := make([]Version, 0, len(raw))
	for i, r := range raw {
		v := MustParse(r)
		if i > 0 {
			require.Equal(t, 1, Compare(v, versions[i-1]), "%s must order after %s", v, versions[i-1])
		}
		versions = append(versions, v)
	}

	for _, a := range versions {
		for _, b := range versions {
			holds := 0
			if Compare(a, b) < 0 {
				holds++
			}
			if Compare(a, b) == 0 {
				holds++
			}
			if Compare(a, b) > 0 {
				holds++
			}
			require.Equal(t, 1, holds, "exactly one relation must hold for %s and %s", a, b)

			for _, c := range versions {
				if Compare(a, b) < 0 && Compare(b, c) < 0 {
					assert.Equal(t, -1, Compare(a, c), "transitivity violated for %s < %s < %s", a, b, c)
				}
			}
		}
	}
}

func TestVersionHelpers(t *testing.T) {
	low, high := MustParse("1.0.0"), MustParse("2.0.0")

	assert.True(t, high.GreaterThan(low))
	assert.False(t, low.GreaterThan(high))
	assert.False(t, low.GreaterThan(MustParse("v1")))
	assert.Equal(t, "0.0.0", Version{}.String())
}

func TestRunning_Development(t *testing.T) {
	orig := version
	defer func() { version = orig }()

	version = "development"
	v, err := Running()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v.String())

	version = "3.1.4"
	v, err = Running()
	require.NoError(t, err)
	assert.Equal(t, "3.1.4", v.String())
}
