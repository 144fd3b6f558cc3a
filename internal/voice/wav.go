package voice

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	wavChannels      = 1
	wavSampleRate    = 24000
	wavBitsPerSample = 16
)

// pcmToWAV wraps raw 16-bit little-endian PCM in a RIFF container. The
// header byte counts are derived from the PCM length, so the file is valid
// for any payload size including empty.
func pcmToWAV(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = wavSampleRate
	}
	blockAlign := wavChannels * wavBitsPerSample / 8
	byteRate := sampleRate * blockAlign

	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], wavChannels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], wavBitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

// wavDataURI encodes WAV bytes as a browser-playable data URI.
func wavDataURI(wav []byte) string {
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(wav)
}

// parseDataURI splits a data URI into its MIME type and decoded payload.
func parseDataURI(uri string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, errors.New("voice: not a data URI")
	}
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return "", nil, errors.New("voice: malformed data URI")
	}
	meta := uri[len("data:"):comma]
	mimeType = meta
	if semi := strings.Index(meta, ";"); semi >= 0 {
		mimeType = meta[:semi]
		if !strings.Contains(meta[semi:], "base64") {
			return "", nil, errors.New("voice: data URI must be base64 encoded")
		}
	}
	data, err = base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return "", nil, fmt.Errorf("voice: failed to decode data URI: %w", err)
	}
	return mimeType, data, nil
}
