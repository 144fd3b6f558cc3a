package voice

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"testing"
)

func TestPCMToWAV_HeaderCounts(t *testing.T) {
	pcm := make([]byte, 4800) // 100ms of mono 24kHz 16-bit audio
	wav := pcmToWAV(pcm, 24000)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected 44-byte header + payload, got %d bytes", len(wav))
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE markers")
	}
	if riffSize := binary.LittleEndian.Uint32(wav[4:8]); riffSize != uint32(36+len(pcm)) {
		t.Errorf("RIFF chunk size = %d, want %d", riffSize, 36+len(pcm))
	}
	if dataSize := binary.LittleEndian.Uint32(wav[40:44]); dataSize != uint32(len(pcm)) {
		t.Errorf("data chunk size = %d, want %d", dataSize, len(pcm))
	}
	if channels := binary.LittleEndian.Uint16(wav[22:24]); channels != 1 {
		t.Errorf("channels = %d, want mono", channels)
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	if byteRate := binary.LittleEndian.Uint32(wav[28:32]); byteRate != 48000 {
		t.Errorf("byte rate = %d, want 48000", byteRate)
	}
}

func TestPCMToWAV_EmptyPayload(t *testing.T) {
	wav := pcmToWAV(nil, 0)
	if len(wav) != 44 {
		t.Fatalf("empty PCM should still yield a valid header, got %d bytes", len(wav))
	}
	if dataSize := binary.LittleEndian.Uint32(wav[40:44]); dataSize != 0 {
		t.Errorf("data chunk size = %d, want 0", dataSize)
	}
	// Default sample rate applies when the synthesizer reports none.
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 24000 {
		t.Errorf("sample rate = %d, want default 24000", rate)
	}
}

func TestWAVDataURI(t *testing.T) {
	uri := wavDataURI([]byte{1, 2, 3})
	if !strings.HasPrefix(uri, "data:audio/wav;base64,") {
		t.Fatalf("unexpected prefix: %q", uri)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:audio/wav;base64,"))
	if err != nil {
		t.Fatalf("payload not base64: %v", err)
	}
	if !bytes.Equal(decoded, []byte{1, 2, 3}) {
		t.Error("payload round trip mismatch")
	}
}

func TestParseDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("audio-bytes"))
	mimeType, data, err := parseDataURI("data:audio/webm;base64," + payload)
	if err != nil {
		t.Fatalf("parseDataURI returned error: %v", err)
	}
	if mimeType != "audio/webm" {
		t.Errorf("mime type = %q, want audio/webm", mimeType)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("unexpected payload: %q", data)
	}
}

func TestParseDataURI_Malformed(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"not a data uri", "https://example.com/a.wav"},
		{"no comma", "data:audio/webm;base64"},
		{"not base64 encoded", "data:audio/webm;charset=utf8,plaintext"},
		{"bad payload", "data:audio/webm;base64,!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseDataURI(tt.uri); err == nil {
				t.Error("expected error")
			}
		})
	}
}
