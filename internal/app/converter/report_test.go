package converter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporter_Lines(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.Skip("freedict-deu-nld/deu-nld.tei")
	r.Parsing("freedict-eng-nld/eng-nld.tei")
	r.Headwords(2)
	r.Saved("eng-nld.json", 2048)
	r.Reverse(3, "nld-eng.json", 100)
	r.DryRun(4)
	r.Done()

	assert.Equal(t, "SKIP: freedict-deu-nld/deu-nld.tei not found\n"+
		"Parsing freedict-eng-nld/eng-nld.tei...\n"+
		"  -> 2 headwords\n"+
		"  -> Saved eng-nld.json (2 KB)\n"+
		"  -> Reverse: 3 headwords -> nld-eng.json (0 KB)\n"+
		"  -> Dry run: 4 reverse headwords, nothing written\n"+
		"Done!\n", buf.String())
}

func TestKilobytes(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0"},
		{2, "0"},
		{511, "0"},
		{512, "0"},  // 0.5 rounds to even
		{513, "1"},
		{1024, "1"},
		{1536, "2"}, // 1.5 rounds to even
		{2560, "2"}, // 2.5 rounds to even
		{1 << 20, "1024"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kilobytes(tt.size), "size %d", tt.size)
	}
}
