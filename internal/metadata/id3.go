package metadata

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	id3v2HeaderSize = 10
	id3v2FrameSize  = 10
	id3v1TagSize    = 128
)

// DecodeSynchsafe декодирует 4-байтовое synchsafe-число (по 7 значащих бит в байте)
func DecodeSynchsafe(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

// parseID3v2Artist ищет исполнителя во фреймах TPE1/TPE2.
// Любой выход за границы тега или буфера прерывает обход фреймов.
func parseID3v2Artist(buf []byte) string {
	if len(buf) < id3v2HeaderSize || string(buf[0:3]) != "ID3" {
		return ""
	}

	size := int(DecodeSynchsafe(buf[6:10]))
	offset := id3v2HeaderSize

	for offset < size {
		if offset+id3v2FrameSize > len(buf) {
			return ""
		}

		frameID := string(buf[offset : offset+4])
		frameSize := int(binary.BigEndian.Uint32(buf[offset+4 : offset+8]))
		offset += id3v2FrameSize

		// Тело фрейма должно целиком помещаться и в тег, и в буфер
		if frameSize < 0 || frameSize > size-offset || frameSize > len(buf)-offset {
			return ""
		}

		if frameID == "TPE1" || frameID == "TPE2" {
			body := buf[offset : offset+frameSize]
			if len(body) > 0 {
				if artist := cleanText(decodeText(body[1:], body[0])); artist != "" {
					return artist
				}
			}
		}

		offset += frameSize
	}

	return ""
}

// parseID3v1Artist читает поле исполнителя из 128-байтового хвоста
func parseID3v1Artist(buf []byte) string {
	if len(buf) < id3v1TagSize {
		return ""
	}

	tail := buf[len(buf)-id3v1TagSize:]
	if string(tail[0:3]) != "TAG" {
		return ""
	}

	return cleanText(decodeText(tail[3:33], 0))
}

// decodeText декодирует текст фрейма согласно байту кодировки
func decodeText(data []byte, enc byte) string {
	if len(data) == 0 {
		return ""
	}

	var decoder *encoding.Decoder
	switch enc {
	case 0: // ISO-8859-1
		// Многие теги пишут UTF-8 под видом Latin-1
		if utf8.Valid(data) {
			return string(data)
		}
		decoder = charmap.ISO8859_1.NewDecoder()
	case 1: // UTF-16 с BOM
		decoder = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if !hasBOM(data) {
			decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		}
	case 2: // UTF-16BE без BOM
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	default: // 3: UTF-8 и неизвестные кодировки
		return string(data)
	}

	if enc == 1 || enc == 2 {
		data = trimOddByte(data)
	}

	decoded, err := decoder.Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// cleanText убирает нулевые байты и пробелы по краям
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

func hasBOM(data []byte) bool {
	return len(data) >= 2 &&
		(bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}))
}

func trimOddByte(data []byte) []byte {
	if len(data)%2 != 0 {
		return data[:len(data)-1]
	}
	return data
}
