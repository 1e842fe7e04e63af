package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// loadOpusPackets reads a DCA container: a sequence of little endian int16
// frame lengths, each followed by one opus frame.
func loadOpusPackets(r io.Reader) ([][]byte, error) {
	var packets [][]byte
	var frameLen int16
	for {
		err := binary.Read(r, binary.LittleEndian, &frameLen)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return packets, nil
			}
			return nil, fmt.Errorf("failed to read frame length: %w", err)
		}
		if frameLen <= 0 {
			return nil, fmt.Errorf("invalid frame length %d at packet %d", frameLen, len(packets))
		}

		packet := make([]byte, frameLen)
		if err := binary.Read(r, binary.LittleEndian, &packet); err != nil {
			// Should not be any end of file errors
			return nil, fmt.Errorf("failed to read packet %d: %w", len(packets), err)
		}
		packets = append(packets, packet)
	}
}

func loadOpusFile(path string) ([][]byte, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint
	return loadOpusPackets(f)
}
