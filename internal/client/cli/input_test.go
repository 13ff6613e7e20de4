package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if !strings.Contains(out.String(), "Name?") {
		t.Fatalf("prompt not printed: %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	if err == nil {
		t.Fatal("expected EOF error on empty input")
	}
}

func TestGetDefaultText(t *testing.T) {
	var out bytes.Buffer

	got, err := GetDefaultText(rdr("\n"), "Language", "English", &out)
	require.NoError(t, err)
	assert.Equal(t, "English", got)
	assert.Contains(t, out.String(), "Language [English]")

	got, err = GetDefaultText(rdr("Latvian\n"), "Language", "English", &out)
	require.NoError(t, err)
	assert.Equal(t, "Latvian", got)
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\nb\n\n\n"), "Enter text", &out)
	if err != nil {
		t.Fatal(err)
	}
	want := "a\nb"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGetMultiline_EOFWithoutBlankLine(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("only line"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "only line", got)
}

func TestGetList(t *testing.T) {
	var out bytes.Buffer
	got, err := GetList(rdr(" exam, bio ,, \n"), "Tags", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"exam", "bio"}, got)

	got, err = GetList(rdr("\n"), "Tags", &out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetSecret(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	readPassword = func(int) ([]byte, error) { return []byte("sk-test"), nil }
	var out bytes.Buffer
	got, err := GetSecret(&out, "Key: ")
	require.NoError(t, err)
	assert.Equal(t, []byte("sk-test"), got)
	assert.Equal(t, "Key: \n", out.String())
}

func TestGetSecret_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetSecret(&out, "Key: ")
	if err == nil {
		t.Fatal("expected error")
	}
}
