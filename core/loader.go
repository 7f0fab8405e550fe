package core

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

// LoadImage reads a program image from r and writes it into the bus
// through the quiet path, bypassing watches and per-byte logging.
// format selects the parser: "ti-text" for TI-Text, anything else for
// Intel-HEX.
func (b *SystemBus) LoadImage(r io.Reader, format string) error {
	var pairs []AddrByte
	var err error
	if format == "ti-text" {
		pairs, err = parseTIText(r)
	} else {
		pairs, err = parseIntelHex(r)
	}
	if err != nil {
		return err
	}
	b.LoadQuiet(pairs)
	log.Printf("[msp430] INFO: %d bytes loaded", len(pairs))
	return nil
}

// parseIntelHex parses the Intel-HEX record format. Only record type
// 0x00 (data) produces output; types 0x01-0x03 are recognised and
// ignored, other types are warned and skipped. Byte count and
// checksum are not validated (see DESIGN.md).
func parseIntelHex(r io.Reader) ([]AddrByte, error) {
	var pairs []AddrByte
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			return nil, fmt.Errorf("intel-hex: line missing ':' prefix: %q", line)
		}
		raw, err := hex.DecodeString(line[1:])
		if err != nil {
			return nil, fmt.Errorf("intel-hex: invalid hex in line %q: %w", line, err)
		}
		if len(raw) < 5 {
			return nil, fmt.Errorf("intel-hex: line too short: %q", line)
		}
		count := int(raw[0])
		addr := uint16(raw[1])<<8 | uint16(raw[2])
		recType := raw[3]
		data := raw[4 : 4+count]

		switch {
		case recType == 0x00:
			for i, d := range data {
				pairs = append(pairs, AddrByte{Addr: addr + uint16(i), Byte: d})
			}
		case recType >= 0x01 && recType <= 0x03:
			// end-of-file / segment / linear address records: ignored
		default:
			log.Printf("[msp430] WARN: intel-hex: skipping unknown record type %#02x", recType)
		}
	}
	return pairs, scanner.Err()
}

// parseTIText parses the TI-Text format: a whitespace-separated hex
// byte stream interspersed with `@HHHH` address-set directives,
// terminated by a line beginning with `q`.
func parseTIText(r io.Reader) ([]AddrByte, error) {
	var pairs []AddrByte
	var addr uint16

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "q") {
			break
		}
		for _, field := range strings.Fields(line) {
			if strings.HasPrefix(field, "@") {
				v, err := strconv.ParseUint(field[1:], 16, 16)
				if err != nil {
					return nil, fmt.Errorf("ti-text: invalid address directive %q: %w", field, err)
				}
				addr = uint16(v)
				continue
			}
			v, err := strconv.ParseUint(field, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("ti-text: invalid byte %q: %w", field, err)
			}
			pairs = append(pairs, AddrByte{Addr: addr, Byte: byte(v)})
			addr++
		}
	}
	return pairs, scanner.Err()
}
