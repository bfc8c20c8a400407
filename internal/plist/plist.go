// Package plist wraps howett.net/plist with the narrow codec surface the
// merge pipeline needs: decode a property list into loosely typed Go values
// and re-encode it in the same on-disk format it arrived in.
package plist

import (
	"bytes"
	"fmt"

	hplist "howett.net/plist"
)

// Format identifies the serialization of a property-list file, so a merged
// document can be written back the way it was found.
type Format int

const (
	// XML is the xml1 plist format.
	XML Format = iota
	// Binary is the bplist00 format.
	Binary
)

// Parse decodes data into a map of loosely typed values (string, bool,
// uint64/int64, float64, []byte, []any, map[string]any) and reports the
// format the document was stored in.
func Parse(data []byte) (map[string]any, Format, error) {
	var doc map[string]any
	dec := hplist.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, XML, fmt.Errorf("decode plist: %w", err)
	}
	format := XML
	if dec.Format == hplist.BinaryFormat {
		format = Binary
	}
	return doc, format, nil
}

// Serialize encodes doc in the given format. XML output is indented the way
// macOS tooling writes plists.
func Serialize(doc map[string]any, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var enc *hplist.Encoder
	if format == Binary {
		enc = hplist.NewEncoderForFormat(&buf, hplist.BinaryFormat)
	} else {
		enc = hplist.NewEncoderForFormat(&buf, hplist.XMLFormat)
		enc.Indent("\t")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode plist: %w", err)
	}
	return buf.Bytes(), nil
}
