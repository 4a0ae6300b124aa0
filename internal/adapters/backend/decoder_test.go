package backend

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguide/careguide-cli/internal/domain"
)

func decodeAll(t *testing.T, r io.Reader) []domain.StreamChunk {
	t.Helper()

	var chunks []domain.StreamChunk
	err := DecodeStream(context.Background(), r, func(chunk domain.StreamChunk) {
		chunks = append(chunks, chunk)
	}, nil)
	require.NoError(t, err)
	return chunks
}

func TestDecodeStreamBasicRecords(t *testing.T) {
	t.Parallel()

	stream := "data: {\"content\":\"hi there\",\"status\":\"complete\"}\n\n" +
		"data: [DONE]\n\n"

	chunks := decodeAll(t, strings.NewReader(stream))
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.StreamChunk{Content: "hi there", Status: "complete"}, chunks[0])
}

func TestDecodeStreamSplitAtEveryByteOffset(t *testing.T) {
	t.Parallel()

	stream := "data: {\"content\":\"first section\",\"status\":\"streaming\"}\n\n" +
		"event: keepalive\n\n" +
		"data: {\"answer\":\"second\",\"status\":\"new_message\"}\n\n" +
		"data: {\"response\":\"third\",\"status\":\"complete\"}\n\n"

	want := decodeAll(t, strings.NewReader(stream))
	require.Len(t, want, 3)

	for size := 1; size <= len(stream); size++ {
		t.Run(fmt.Sprintf("fragment size %d", size), func(t *testing.T) {
			var fragments []string
			for i := 0; i < len(stream); i += size {
				end := i + size
				if end > len(stream) {
					end = len(stream)
				}
				fragments = append(fragments, stream[i:end])
			}

			got := decodeAll(t, &fragmentReader{fragments: fragments})
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeStreamSkipsMalformedRecord(t *testing.T) {
	t.Parallel()

	stream := "data: {\"content\":\"one\"}\n\n" +
		"data: {broken json\n\n" +
		"data: {\"content\":\"two\"}\n\n"

	chunks := decodeAll(t, strings.NewReader(stream))
	require.Len(t, chunks, 2)
	assert.Equal(t, "one", chunks[0].Content)
	assert.Equal(t, "two", chunks[1].Content)
}

func TestDecodeStreamDropsRecordsWithoutContent(t *testing.T) {
	t.Parallel()

	stream := "data: {\"status\":\"thinking\"}\n\n" +
		": comment line\n\n" +
		"data: {\"content\":\"real answer\"}\n\n"

	chunks := decodeAll(t, strings.NewReader(stream))
	require.Len(t, chunks, 1)
	assert.Equal(t, "real answer", chunks[0].Content)
}

func TestDecodeStreamStopsAtDoneMarker(t *testing.T) {
	t.Parallel()

	stream := "data: {\"content\":\"before\"}\n\n" +
		"data: [DONE]\n\n" +
		"data: {\"content\":\"after\"}\n\n"

	chunks := decodeAll(t, strings.NewReader(stream))
	require.Len(t, chunks, 1)
	assert.Equal(t, "before", chunks[0].Content)
}

func TestDecodeStreamParsesTrailingRecordAtEOF(t *testing.T) {
	t.Parallel()

	// No trailing separator: the leftover buffer is still decoded.
	stream := "data: {\"content\":\"one\"}\n\ndata: {\"content\":\"tail\"}"

	chunks := decodeAll(t, strings.NewReader(stream))
	require.Len(t, chunks, 2)
	assert.Equal(t, "tail", chunks[1].Content)
}

func TestDecodeStreamStopsEmittingOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	stream := "data: {\"content\":\"one\"}\n\n" +
		"data: {\"content\":\"two\"}\n\n"

	var chunks []domain.StreamChunk
	err := DecodeStream(ctx, strings.NewReader(stream), func(chunk domain.StreamChunk) {
		chunks = append(chunks, chunk)
		cancel()
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, chunks, 1, "no chunk may be emitted after cancellation")
	assert.Equal(t, "one", chunks[0].Content)
}

// fragmentReader hands back the stream one pre-cut fragment per Read call,
// simulating arbitrary network split points.
type fragmentReader struct {
	fragments []string
	next      int
}

func (r *fragmentReader) Read(p []byte) (int, error) {
	if r.next >= len(r.fragments) {
		return 0, io.EOF
	}
	n := copy(p, r.fragments[r.next])
	r.next++
	return n, nil
}
