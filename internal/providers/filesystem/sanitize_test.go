package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrictSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"naïve café.txt", "naive_cafe.txt"},
		{"...", ""},
		{"日本語", ""},
		{"con.txt", "_con.txt"},
		{"a<b>c?.txt", "abc.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StrictSanitize(tt.in), "input %q", tt.in)
	}
}

func TestPermissiveSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Reports 2024", "Reports 2024"},
		{"a/b\\c", "abc"},
		{"what?<now>|\"*:", "whatnow"},
		{"tab\there\x00", "tabhere"},
		{"  padded  ", "padded"},
		{"(draft) #1 & final.txt", "(draft) #1 & final.txt"},
		{"日本語.txt", "日本語.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PermissiveSanitize(tt.in), "input %q", tt.in)
	}
}

func TestValidName(t *testing.T) {
	assert.False(t, validName(""))
	assert.False(t, validName("."))
	assert.False(t, validName(".."))
	assert.True(t, validName("..."))
	assert.True(t, validName("a"))
}
