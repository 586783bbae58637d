package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadText(t *testing.T) {
	text, err := readText([]string{"Срочно", "пришлите", "отчёт."}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "Срочно пришлите отчёт.", text)

	text, err = readText(nil, strings.NewReader("  из stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "из stdin", text)

	_, err = readText(nil, strings.NewReader(" \n\t"))
	assert.EqualError(t, err, "no text")

	_, err = readText([]string{" "}, strings.NewReader("not read"))
	assert.Error(t, err)
}
