package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Travel Notes", "travel-notes"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Multiple   spaces", "multiple-spaces"},
		{"Punctuation! And? Symbols#", "punctuation-and-symbols"},
		{"Already-dashed title", "already-dashed-title"},
		{"UPPERCASE", "uppercase"},
		{"---", ""},
		{"", ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, GenerateSlug(test.title), test.title)
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"travel", "travel-notes", "a1-b2-c3", "2024"}
	for _, s := range valid {
		assert.True(t, ValidSlug(s), s)
	}

	invalid := []string{"", "-travel", "travel-", "travel--notes", "Travel", "travel notes", "travel_notes"}
	for _, s := range invalid {
		assert.False(t, ValidSlug(s), s)
	}
}
