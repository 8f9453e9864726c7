package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lefth/tmsu/internal/model"
)

func TestParseTagValueSpecsSplitsOnEquals(t *testing.T) {
	specs := parseTagValueSpecs([]string{"year=2024", "photo"})
	require.Equal(t, []tagValueSpec{
		{tagName: "year", valueName: "2024"},
		{tagName: "photo"},
	}, specs)
}

func TestSplitTagValueWithNoEquals(t *testing.T) {
	tag, value := splitTagValue("photo")
	require.Equal(t, "photo", tag)
	require.Equal(t, "", value)
}

func TestSplitTagValueWithEquals(t *testing.T) {
	tag, value := splitTagValue("year=2024")
	require.Equal(t, "year", tag)
	require.Equal(t, "2024", value)
}

func TestParseSort(t *testing.T) {
	cases := map[string]model.Sort{
		"id":   model.SortID,
		"name": model.SortName,
		"":     model.SortName,
		"time": model.SortTime,
		"size": model.SortSize,
	}
	for input, want := range cases {
		got, err := parseSort(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := parseSort("bogus")
	require.Error(t, err)
}

func TestBoldWrapsOnlyWhenColorEnabled(t *testing.T) {
	orig := colorOutput
	defer func() { colorOutput = orig }()

	colorOutput = false
	require.Equal(t, "photo", bold("photo"))

	colorOutput = true
	require.Equal(t, "\033[1mphoto\033[0m", bold("photo"))
}
