package blockfile

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

func encodeSection(codec Codec, raw []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return raw, nil
	case CodecSnappy:
		return snappy.Encode(nil, raw), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(codec))
	}
}

func decodeSection(codec Codec, encoded []byte, rawLen uint32) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch codec {
	case CodecNone:
		raw = encoded
	case CodecSnappy:
		raw, err = snappy.Decode(nil, encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy: %v", ErrChecksumMismatch, err)
		}
	case CodecZstd:
		dec, derr := zstd.NewReader(nil)
		if derr != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", derr)
		}
		defer dec.Close()
		raw, err = dec.DecodeAll(encoded, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrChecksumMismatch, err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(codec))
	}
	if uint32(len(raw)) != rawLen {
		return nil, fmt.Errorf("%w: expected %d raw bytes, got %d", ErrTruncated, rawLen, len(raw))
	}
	return raw, nil
}
