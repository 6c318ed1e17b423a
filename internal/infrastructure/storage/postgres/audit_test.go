package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_CompressRoundTrip(t *testing.T) {
	s, err := NewAuditService(nil)
	require.NoError(t, err)

	small := AuditEntry{Changes: []byte(`{"status":"paid"}`)}
	s.Compress(&small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	raw := append([]byte(`{"notes":"`), bytes.Repeat([]byte("a"), 20*1024)...)
	raw = append(raw, []byte(`"}`)...)
	large := AuditEntry{Changes: raw}
	s.Compress(&large)
	assert.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(raw))

	require.NoError(t, s.Decompress(&large))
	assert.Equal(t, raw, []byte(large.Changes))
}
