package sometag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordShapeCollapsesRuns(t *testing.T) {
	assert.Equal(t, "Xxxxx", wordShape("Hello"))
	assert.Equal(t, "dddd", wordShape("123456"))
	assert.Equal(t, "Xx-dddd", wordShape("Ab-1234"))
}

func TestWordShapeLongWord(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	assert.Equal(t, "LONG", wordShape(long))
}

func TestFlagNamesBasic(t *testing.T) {
	assert.Contains(t, flagNames("hello"), "isalpha")
	assert.Contains(t, flagNames("hello"), "islower")
	assert.Contains(t, flagNames("HELLO"), "isupper")
	assert.Contains(t, flagNames("Hello"), "istitle")
	assert.Contains(t, flagNames("123"), "isnumeric")
}

func TestFlagNamesURLAndEmail(t *testing.T) {
	assert.Contains(t, flagNames("jane@example.com"), "isemail")
	assert.Contains(t, flagNames("https://example.com"), "isurl")
	assert.Contains(t, flagNames("<p>"), "isxmltag")
	assert.Contains(t, flagNames("@someone"), "ismention")
	assert.Contains(t, flagNames("#golang"), "ishashtag")
}

func TestFlagNamesEmoticon(t *testing.T) {
	assert.Contains(t, flagNames(":-)"), "isemoticon")
	assert.Contains(t, flagNames("(-:"), "isemoticon")
}

func TestCachesMemoizeResults(t *testing.T) {
	c := newCaches()
	first := c.shapeOf("Hello")
	second := c.shapeOf("Hello")
	assert.Equal(t, first, second)
}
