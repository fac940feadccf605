package adapter

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := newFrameWriter(&buf)

	in := message{Seq: 7, Type: typeRequest, Command: "next", Arguments: json.RawMessage(`{"threadId":1}`)}
	require.NoError(t, w.writeMessage(in))

	r := newFrameReader(&buf)
	out, err := r.readMessage()
	require.NoError(t, err)
	assert.Equal(t, in.Seq, out.Seq)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.Command, out.Command)
	assert.JSONEq(t, string(in.Arguments), string(out.Arguments))
}

func TestFrameReaderRejectsMissingContentLength(t *testing.T) {
	t.Parallel()
	r := newFrameReader(bytes.NewBufferString("X-Other: 1\r\n\r\n{}"))
	_, err := r.readMessage()
	assert.Error(t, err)
}

func TestFrameReaderReadsMultipleFramesInSequence(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := newFrameWriter(&buf)
	require.NoError(t, w.writeMessage(message{Seq: 1, Type: typeRequest, Command: "a"}))
	require.NoError(t, w.writeMessage(message{Seq: 2, Type: typeRequest, Command: "b"}))

	r := newFrameReader(&buf)
	first, err := r.readMessage()
	require.NoError(t, err)
	second, err := r.readMessage()
	require.NoError(t, err)

	assert.Equal(t, "a", first.Command)
	assert.Equal(t, "b", second.Command)
}
