// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metadata

import (
	"bytes"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// 🚫 ErrDecode indicates file bytes could not be decoded as text
var ErrDecode = errors.New("decoding text content")

// binarySampleSize is how many leading bytes we inspect for NUL bytes
const binarySampleSize = 1024

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// 🔍 isBinary reports whether the data looks like binary content. A NUL byte
// in the leading sample is the giveaway, same heuristic as `grep -I`.
func isBinary(data []byte) bool {
	sample := data
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}
	return bytes.IndexByte(sample, 0) >= 0
}

// 📖 decodeText decodes file bytes into a string, trying encodings in a
// fixed order: UTF-8 BOM, UTF-16 BOMs, plain UTF-8, then (only when the
// replacement policy is active) a Windows-1252 fallback that always
// succeeds. Without the policy, undecodable bytes are an ErrDecode.
func decodeText(data []byte, replaceInvalid bool) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
		if utf8.Valid(data) {
			return string(data), nil
		}

	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, err := decoder.Bytes(data)
		if err != nil {
			return "", errors.Errorf("%w: utf-16: %w", ErrDecode, err)
		}
		return string(decoded), nil

	default:
		if utf8.Valid(data) {
			return string(data), nil
		}
	}

	if !replaceInvalid {
		return "", errors.Errorf("%w: not valid utf-8", ErrDecode)
	}

	// Windows-1252 maps every byte to a rune, so this cannot fail.
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Errorf("%w: windows-1252 fallback: %w", ErrDecode, err)
	}
	return string(decoded), nil
}

// 🔢 countLines counts lines the way text editors do: a trailing newline does
// not start a new line.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	count := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			count++
		}
	}
	if content[len(content)-1] != '\n' {
		count++
	}
	return count
}
