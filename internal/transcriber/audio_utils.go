package transcriber

import (
	"bytes"
	"encoding/binary"
)

// recognizerSampleRate is the PCM rate every recognizer is fed with.
const recognizerSampleRate = 16000

// pcmToWAV wraps raw 16-bit mono PCM at recognizerSampleRate in a WAV header.
func pcmToWAV(pcm []byte) []byte {
	var buf bytes.Buffer

	const channels = 1
	const bitsPerSample = 16
	const byteRate = recognizerSampleRate * channels * bitsPerSample / 8
	const blockAlign = channels * bitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(recognizerSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// samplesToPCM mixes beep stereo frames down to mono little-endian int16.
func samplesToPCM(dst []byte, samples [][2]float64) []byte {
	for _, s := range samples {
		v := (s[0] + s[1]) / 2
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(v*32767)))
	}
	return dst
}
