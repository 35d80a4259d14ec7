package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_MasksSecret(t *testing.T) {
	out := Input("Senha", "abcção", false, true)
	assert.Contains(t, out, "******")
	assert.NotContains(t, out, "abc")

	out = Input("Usuário", "bob", true, false)
	assert.Contains(t, out, "bob│")
}

func TestFormatPrice(t *testing.T) {
	assert.Contains(t, FormatPrice(50000), "$50000.00")
	assert.Contains(t, FormatPrice(2.5), "$2.5000")
	assert.Contains(t, FormatPrice(0.08), "$0.080000")
}

func TestFormatPercentage(t *testing.T) {
	assert.Contains(t, FormatPercentage(1.5), "+1.50%")
	assert.Contains(t, FormatPercentage(-2), "-2.00%")
}
