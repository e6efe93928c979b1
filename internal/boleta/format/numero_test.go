package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumero(t *testing.T) {
	got, err := Numero(DefaultNumeroTemplate, 2024, 6, 42)
	require.NoError(t, err)
	assert.Equal(t, "B-202406-000042", got)

	got, err = Numero("{YY}{MM}/{SEQ}", 2024, 12, 7)
	require.NoError(t, err)
	assert.Equal(t, "2412/7", got)
}

func TestNumeroErrors(t *testing.T) {
	_, err := Numero("", 2024, 6, 1)
	assert.Error(t, err)
	_, err = Numero(DefaultNumeroTemplate, 2024, 6, 0)
	assert.Error(t, err)
	_, err = Numero(DefaultNumeroTemplate, 2024, 13, 1)
	assert.Error(t, err)
	_, err = Numero("B-{FOO}-{SEQ}", 2024, 6, 1)
	assert.Error(t, err)
}
