package editor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CheckWellFormed walks the markup's token stream and returns the first
// structural error. It is not schema validation.
func CheckWellFormed(body string) error {
	dec := xml.NewDecoder(strings.NewReader(body))
	seenElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("malformed markup: %w", err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			seenElement = true
		}
	}
	if !seenElement {
		return errors.New("malformed markup: no elements")
	}
	return nil
}

// Pretty re-indents well-formed markup with four spaces per level. The XML
// declaration and whitespace-only text are dropped; element content and
// attributes pass through unchanged.
func Pretty(body string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))

	var out strings.Builder
	enc := xml.NewEncoder(&out)
	enc.Indent("", "    ")

	seenElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed markup: %w", err)
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			continue
		case xml.CharData:
			if strings.TrimSpace(string(t)) == "" {
				continue
			}
		case xml.StartElement:
			seenElement = true
		}

		if err := enc.EncodeToken(tok); err != nil {
			return "", fmt.Errorf("format markup: %w", err)
		}
	}

	if !seenElement {
		return "", errors.New("malformed markup: no elements")
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("format markup: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
