/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package prettyjson reformats a JSON document embedded anywhere in a byte
// string into an indented, readable form. It is a single-pass, byte-level
// reformatter: it does not parse JSON into a tree, so it tolerates (and
// passes through unchanged) any non-JSON text surrounding the document.
package prettyjson

var preparedIndents = [][]byte{
	[]byte("\n"),
	[]byte("\n  "),
	[]byte("\n    "),
	[]byte("\n      "),
	[]byte("\n        "),
	[]byte("\n          "),
	[]byte("\n            "),
	[]byte("\n              "),
	[]byte("\n                "),
	[]byte("\n                  "),
	[]byte("\n                    "),
	[]byte("\n                      "),
}

func indentFor(depth int) []byte {
	if depth < len(preparedIndents) {
		return preparedIndents[depth]
	}
	return preparedIndents[len(preparedIndents)-1]
}

type symbol int

const (
	symObjectOrArrayStart symbol = iota
	symObjectOrArrayEnd
	symWhitespace
	symStringBoundary
	symKeyValueSeparator
	symItemSeparator
	symEscapedCharacter
	symNotAJSON
)

func detectSymbol(hasLast bool, lastChar, cur byte) symbol {
	if hasLast && lastChar == '\\' {
		return symEscapedCharacter
	}
	switch cur {
	case '{', '[':
		return symObjectOrArrayStart
	case '}', ']':
		return symObjectOrArrayEnd
	case '"':
		return symStringBoundary
	case ':':
		return symKeyValueSeparator
	case ',':
		return symItemSeparator
	case ' ', '\n', '\t':
		return symWhitespace
	default:
		return symNotAJSON
	}
}

// Format reformats the first JSON object or array found in source into an
// indented form, leaving any surrounding text untouched. Whitespace inside
// the JSON but outside string literals is normalized; whitespace inside
// string literals is preserved exactly.
func Format(source string) string {
	src := []byte(source)
	result := make([]byte, 0, int(float64(len(src))*2+1))

	nextIndent := 0
	sourceRewritePos := 0
	stringStarted := false
	whitespaceStarted := false
	hasLast := false
	var lastChar byte
	jsonStarted := false

	for i := 0; i < len(src); i++ {
		cur := src[i]
		sym := detectSymbol(hasLast, lastChar, cur)
		hasLast = true
		lastChar = cur

		if !jsonStarted && sym != symObjectOrArrayStart {
			continue
		}
		jsonStarted = true

		if sym == symWhitespace {
			if !stringStarted {
				if !whitespaceStarted {
					whitespaceStarted = true
					result = append(result, src[sourceRewritePos:i]...)
				}
				sourceRewritePos = i + 1
			}
			continue
		}

		if whitespaceStarted {
			whitespaceStarted = false
		}

		if sym == symStringBoundary {
			stringStarted = !stringStarted
		}

		if !stringStarted {
			if sym == symObjectOrArrayStart {
				nextIndent++
			} else if sym == symObjectOrArrayEnd && nextIndent > 0 {
				nextIndent--
			}

			if sym != symNotAJSON {
				result = append(result, src[sourceRewritePos:i+1]...)
				sourceRewritePos = i + 1
			}

			if sym == symKeyValueSeparator {
				result = append(result, ' ')
			}

			if sym == symObjectOrArrayStart || sym == symItemSeparator || sym == symObjectOrArrayEnd {
				var closingBracket byte
				hasClosing := false
				if sym == symObjectOrArrayEnd {
					closingBracket = result[len(result)-1]
					hasClosing = true
					result = result[:len(result)-1]
				}
				result = append(result, indentFor(nextIndent)...)
				if hasClosing {
					result = append(result, closingBracket)
				}
			}
		}

		if sym == symObjectOrArrayEnd && nextIndent == 0 {
			break
		}
	}

	result = append(result, src[sourceRewritePos:]...)
	return string(result)
}
