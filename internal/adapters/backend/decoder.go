package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/careguide/careguide-cli/internal/ports"
)

const (
	recordSeparator = "\n\n"
	dataPrefix      = "data: "
	doneMarker      = "[DONE]"
	readBufferSize  = 4 << 10
)

// DecodeStream consumes an incrementally arriving text stream framed as
// blank-line separated records whose "data: " lines carry JSON payloads,
// and emits one chunk per record with usable content.
//
// Fragments may split a record, or a single line, at any byte offset: text
// after the last complete separator is carried over and re-processed once
// more data arrives. At end of stream the remaining carry-over is parsed
// as a final record. A "[DONE]" payload ends decoding early. Individual
// malformed payloads are skipped without aborting the stream, and a
// cancelled ctx stops both reading and emitting promptly.
func DecodeStream(ctx context.Context, r io.Reader, emit ports.ChunkSink, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	buf := make([]byte, readBufferSize)
	var carry string

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			carry += string(buf[:n])

			for {
				sep := strings.Index(carry, recordSeparator)
				if sep < 0 {
					break
				}
				record := carry[:sep]
				carry = carry[sep+len(recordSeparator):]

				if err := ctx.Err(); err != nil {
					return err
				}
				if decodeRecord(record, emit, logger) {
					return nil
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if carry != "" && ctx.Err() == nil {
					decodeRecord(carry, emit, logger)
				}
				return ctx.Err()
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("read chat stream: %w", readErr)
		}
	}
}

// decodeRecord handles one record and reports whether the terminal marker
// was seen.
func decodeRecord(record string, emit ports.ChunkSink, logger *slog.Logger) bool {
	for _, line := range strings.Split(record, "\n") {
		payload, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}
		if payload == doneMarker {
			return true
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			logger.Debug("skip malformed stream record", "error", err)
			continue
		}

		if chunk, usable := domain.ChunkFromPayload(decoded); usable {
			emit(chunk)
		}
	}
	return false
}
