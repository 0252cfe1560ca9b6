package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join())
	assert.Equal(t, "", Join(""))
	assert.Equal(t, "relevance.", Join("relevance"))
	assert.Equal(t, "eval.relevance.", Join("eval", "", "relevance"))
}
