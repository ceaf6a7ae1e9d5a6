/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

/*
Package jsonlit decodes and encodes the permissive object/array literal
syntax used by Object and Array args: standard JSON values plus bare
(unquoted) keys, single-quoted strings, and trailing commas. It is a
small hand-rolled scanner in the same state-machine style as the lexer
package.
*/
package jsonlit

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/krotik/common/sortutil"
)

type scanner struct {
	src string
	pos int
}

/*
Decode parses a permissive object or array literal (the text between,
but not including, the outer `{`/`[` and `}`/`]`) and returns the
decoded value tree using the same value domain as the executor: nil,
bool, float64, string, []interface{}, map[string]interface{}.
*/
func Decode(code string, isObject bool) (interface{}, error) {
	s := &scanner{src: code}
	s.skipSpace()

	var v interface{}
	var err error
	if isObject {
		v, err = s.parseObjectBody()
	} else {
		v, err = s.parseArrayBody()
	}
	if err != nil {
		return nil, err
	}

	s.skipSpace()
	if s.pos != len(s.src) {
		return nil, fmt.Errorf("unexpected trailing content at offset %d", s.pos)
	}
	return v, nil
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		r, w := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		s.pos += w
	}
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) parseObjectBody() (map[string]interface{}, error) {
	result := map[string]interface{}{}

	s.skipSpace()
	if s.pos >= len(s.src) {
		return result, nil
	}

	for {
		s.skipSpace()
		if s.pos >= len(s.src) || s.peek() == '}' {
			break
		}

		key, err := s.parseKey()
		if err != nil {
			return nil, err
		}

		s.skipSpace()
		if s.peek() != ':' {
			return nil, fmt.Errorf("expected ':' after key %q at offset %d", key, s.pos)
		}
		s.pos++
		s.skipSpace()

		val, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		result[key] = val

		s.skipSpace()
		if s.peek() == ',' {
			s.pos++
			s.skipSpace()
			if s.pos >= len(s.src) {
				break // trailing comma
			}
			continue
		}
		break
	}

	return result, nil
}

func (s *scanner) parseArrayBody() ([]interface{}, error) {
	var result []interface{}

	s.skipSpace()
	if s.pos >= len(s.src) {
		return result, nil
	}

	for {
		s.skipSpace()
		if s.pos >= len(s.src) || s.peek() == ']' {
			break
		}

		val, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		result = append(result, val)

		s.skipSpace()
		if s.peek() == ',' {
			s.pos++
			s.skipSpace()
			if s.pos >= len(s.src) {
				break // trailing comma
			}
			continue
		}
		break
	}

	return result, nil
}

/*
parseKey reads a bare or quoted key before a ':'.
*/
func (s *scanner) parseKey() (string, error) {
	if s.peek() == '"' || s.peek() == '\'' {
		return s.parseString()
	}

	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ':' || unicode.IsSpace(rune(c)) {
			break
		}
		s.pos++
	}
	if s.pos == start {
		return "", fmt.Errorf("empty key at offset %d", s.pos)
	}
	return s.src[start:s.pos], nil
}

func (s *scanner) parseValue() (interface{}, error) {
	if s.pos >= len(s.src) {
		return nil, fmt.Errorf("unexpected end of literal")
	}

	switch c := s.peek(); {
	case c == '{':
		s.pos++
		v, err := s.parseObjectBody()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
		if s.peek() != '}' {
			return nil, fmt.Errorf("expected '}' at offset %d", s.pos)
		}
		s.pos++
		return v, nil

	case c == '[':
		s.pos++
		v, err := s.parseArrayBody()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
		if s.peek() != ']' {
			return nil, fmt.Errorf("expected ']' at offset %d", s.pos)
		}
		s.pos++
		return v, nil

	case c == '"' || c == '\'':
		return s.parseString()

	case c == '-' || (c >= '0' && c <= '9'):
		return s.parseNumber()

	default:
		return s.parseBareWord()
	}
}

func (s *scanner) parseString() (string, error) {
	quote := s.src[s.pos]
	s.pos++
	var b strings.Builder

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == quote {
			s.pos++
			return b.String(), nil
		}
		if c == '\\' && s.pos+1 < len(s.src) {
			s.pos++
			switch s.src[s.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\'', '\\', '/':
				b.WriteByte(s.src[s.pos])
			default:
				b.WriteByte(s.src[s.pos])
			}
			s.pos++
			continue
		}
		b.WriteByte(c)
		s.pos++
	}

	return "", fmt.Errorf("unterminated string literal")
}

func (s *scanner) parseNumber() (float64, error) {
	start := s.pos
	if s.peek() == '-' {
		s.pos++
	}
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	if s.pos < len(s.src) && s.src[s.pos] == '.' {
		s.pos++
		for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
			s.pos++
		}
	}
	if s.pos < len(s.src) && (s.src[s.pos] == 'e' || s.src[s.pos] == 'E') {
		s.pos++
		if s.pos < len(s.src) && (s.src[s.pos] == '+' || s.src[s.pos] == '-') {
			s.pos++
		}
		for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
			s.pos++
		}
	}
	return strconv.ParseFloat(s.src[start:s.pos], 64)
}

func (s *scanner) parseBareWord() (interface{}, error) {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ',' || c == '}' || c == ']' || c == ':' || unicode.IsSpace(rune(c)) {
			break
		}
		s.pos++
	}
	word := s.src[start:s.pos]
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if word == "" {
		return nil, fmt.Errorf("unexpected character %q at offset %d", s.peek(), s.pos)
	}
	return word, nil
}

/*
Encode renders v back into the permissive-JSON surface text (the inner
text of an Object or Array Arg), used by the canonical printer when a
literal array/object value needs to be re-serialized after a coercion.
*/
func Encode(v interface{}) string {
	return encodeSeen(v, map[uintptr]bool{})
}

/*
encodeSeen carries the set of container pointers already being rendered
on the current recursion path, so a cyclic array/object prints the
"<cycle>" sentinel on the repeated container instead of recursing
forever.
*/
func encodeSeen(v interface{}, seen map[uintptr]bool) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return strconv.Quote(val)
	case []interface{}:
		if len(val) == 0 {
			return ""
		}
		ptr := reflect.ValueOf(val).Pointer()
		if seen[ptr] {
			return `"<cycle>"`
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = encodeElem(e, seen)
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		if len(val) == 0 {
			return ""
		}
		ptr := reflect.ValueOf(val).Pointer()
		if seen[ptr] {
			return `"<cycle>"`
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		keys := make([]interface{}, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sortutil.InterfaceStrings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			ks := k.(string)
			parts = append(parts, strconv.Quote(ks)+": "+encodeElem(val[ks], seen))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

/*
encodeElem renders a value nested inside an array or object; nested
containers keep their surrounding brackets.
*/
func encodeElem(v interface{}, seen map[uintptr]bool) string {
	open, close := "[", "]"
	switch v.(type) {
	case []interface{}:
	case map[string]interface{}:
		open, close = "{", "}"
	default:
		return encodeSeen(v, seen)
	}
	if rv := reflect.ValueOf(v); rv.Len() > 0 && seen[rv.Pointer()] {
		return `"<cycle>"`
	}
	return open + encodeSeen(v, seen) + close
}
