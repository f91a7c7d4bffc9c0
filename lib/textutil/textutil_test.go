package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "2018  HONDA   CIVIC", expect: "2018 HONDA CIVIC"},
		{input: "\t 2005 FORD \n F-150 ", expect: "2005 FORD F-150"},
		{input: "", expect: ""},
		{input: "   ", expect: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, CollapseWhitespace(test.input))
	}
}

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "2018 HONDA Civic", expect: "2018-honda-civic"},
		{input: "2005 FORD F-150", expect: "2005-ford-f-150"},
		{input: "1999  Chevrolet   S10 Blazer", expect: "1999-chevrolet-s10-blazer"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, Slugify(test.input))
	}
}

func TestFuzzyContains(t *testing.T) {
	require.True(t, FuzzyContains("Rancho Cordova", "rancho"))
	require.True(t, FuzzyContains("Sacramento South", "sacremento"))
	require.True(t, FuzzyContains("anything", ""))
	require.False(t, FuzzyContains("Fairfield", "portland"))
}
