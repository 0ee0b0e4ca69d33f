package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSizeSuffixes(t *testing.T) {
	cases := map[string]uint64{
		"512":  512,
		"4K":   4096,
		"32M":  32 * 1024 * 1024,
		"1G":   1024 * 1024 * 1024,
		"1t":   1024 * 1024 * 1024 * 1024,
	}
	for input, want := range cases {
		got, err := parseSize(input)
		require.NoError(t, err)
		require.Equal(t, want, got, input)
	}
}

func TestParseSizeRejectsEmptyAndGarbage(t *testing.T) {
	_, err := parseSize("")
	require.Error(t, err)

	_, err = parseSize("abc")
	require.Error(t, err)
}

func TestParseFileSpecDefaultsOmittedFields(t *testing.T) {
	path, size, iolimit, err := parseFileSpec("disk0.dat")
	require.NoError(t, err)
	require.Equal(t, "disk0.dat", path)
	require.Zero(t, size)
	require.Zero(t, iolimit)
}

func TestParseFileSpecParsesAllFields(t *testing.T) {
	path, size, iolimit, err := parseFileSpec("disk0.dat;8G;1M")
	require.NoError(t, err)
	require.Equal(t, "disk0.dat", path)
	require.EqualValues(t, 8*1024*1024*1024, size)
	require.EqualValues(t, 1024*1024, iolimit)
}

func TestParseFileSpecRejectsEmptyPath(t *testing.T) {
	_, _, _, err := parseFileSpec(";8G")
	require.Error(t, err)
}

func TestResolveQueueDepthsUsesExplicitWhenGiven(t *testing.T) {
	require.Equal(t, []int{2, 8}, resolveQueueDepths([]int{2, 8}))
}

func TestResolveQueueDepthsAutoGeneratesPowersOfTwo(t *testing.T) {
	depths := resolveQueueDepths(nil)
	require.Equal(t, 1, depths[0])
	require.Equal(t, 2, depths[1])
	require.Equal(t, 4, depths[2])
}

func TestResolveRequestSizesQuickModeUsesSingleSizes(t *testing.T) {
	opts := &options{}
	seq, rnd, err := resolveRequestSizes(opts, 32<<20, 1, 512)
	require.NoError(t, err)
	require.Equal(t, []int{128 * 1024}, seq)
	require.Equal(t, []int{4096}, rnd)
}

func TestResolveRequestSizesCompleteModeSweepsPowersOfTwo(t *testing.T) {
	opts := &options{complete: true}
	seq, rnd, err := resolveRequestSizes(opts, 4096, 1, 512)
	require.NoError(t, err)
	require.Equal(t, []int{512, 1024, 2048, 4096}, seq)
	require.Equal(t, seq, rnd)
}

func TestResolveRequestSizesExplicitOverridesMode(t *testing.T) {
	opts := &options{requestSizes: []string{"4K", "64K"}}
	seq, rnd, err := resolveRequestSizes(opts, 32<<20, 1, 512)
	require.NoError(t, err)
	require.Equal(t, []int{4096, 65536}, seq)
	require.Equal(t, seq, rnd)
}
