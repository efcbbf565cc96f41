package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	valid := []string{"1.0.0", "0.0.1", "10.20.30", "2.0.0-beta", "2.0.0-rc.1", "1.0.0+build.5", "1.0.0-alpha+001"}
	for _, v := range valid {
		assert.True(t, IsValid(v), "expected %q to be valid", v)
	}

	invalid := []string{"", "1", "1.0", "v1.0.0", "1.0.0.0", "latest", "1..0", "one.two.three"}
	for _, v := range invalid {
		assert.False(t, IsValid(v), "expected %q to be invalid", v)
	}
}

func TestCompareAntisymmetry(t *testing.T) {
	pairs := [][2]string{
		{"1.0.0", "2.0.0"},
		{"1.2.0", "1.10.0"},
		{"2.0.0-beta", "2.0.0"},
		{"1.0.0", "1.0.0"},
		{"3.1.4", "3.1.4-rc.2"},
	}
	for _, p := range pairs {
		assert.Equal(t, -Compare(p[1], p[0]), Compare(p[0], p[1]), "compare(%q,%q)", p[0], p[1])
	}
	assert.Equal(t, 0, Compare("1.2.3", "1.2.3"))
}

func TestCompareNumericSegments(t *testing.T) {
	// Numeric, not lexicographic: 1.10.0 > 1.2.0
	assert.Equal(t, -1, Compare("1.2.0", "1.10.0"))
	assert.Equal(t, 1, Compare("1.10.0", "1.9.9"))
}

func TestPrereleaseSortsBeforeRelease(t *testing.T) {
	assert.True(t, IsNewer("2.0.0", "2.0.0-beta"))
	assert.False(t, IsNewer("2.0.0-beta", "2.0.0"))
	assert.Equal(t, -1, Compare("2.0.0-alpha", "2.0.0-beta"))
}

func TestBuildMetadataIgnored(t *testing.T) {
	assert.Equal(t, 0, Compare("1.0.0+build.1", "1.0.0+build.2"))
	assert.False(t, IsNewer("1.0.0+later", "1.0.0"))
}
