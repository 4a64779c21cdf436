// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package rtpwire

import "encoding/binary"

// Bit positions within the RFC 4175 sample-row-data header, spelled out by
// byte offset rather than relied on via native struct layout (see §9 of the
// design notes: packed wire headers are never bitfields).
const (
	// SRDLenUserMeta marks srd_length as redirecting payload to the
	// frame's metadata buffer instead of pixel data.
	SRDLenUserMeta uint16 = 0x8000
	// SRDLenMask isolates the length bits once SRDLenUserMeta is masked off.
	SRDLenMask uint16 = 0x7FFF

	// SRDSecondField marks row (line number) as belonging to the second
	// field of an interlaced frame.
	SRDSecondField uint16 = 0x8000
	// SRDRowMask isolates the 15-bit line number.
	SRDRowMask uint16 = 0x7FFF

	// SRDContinuation marks that a second SRD header follows this one.
	SRDContinuation uint16 = 0x8000
	// SRDOffsetMask isolates the 15-bit line offset.
	SRDOffsetMask uint16 = 0x7FFF

	srdHeaderSize = 6
)

// SampleRowData is one RFC 4175 SRD header: a contiguous span of one video
// line carried by this packet (or a redirect to the user-metadata buffer).
type SampleRowData struct {
	Length       uint16 // pixel-group bytes in this span, SRDLenUserMeta stripped
	UserMeta     bool
	SecondField  bool
	Row          uint16 // line number, SRDSecondField stripped
	Continuation bool
	Offset       uint16 // byte offset within the line, SRDContinuation stripped
}

// RFC4175Header is the RFC 4175 extended header that follows the common RTP
// header for every ST 2110-20 packet: an extended 16-bit sequence number,
// one mandatory SRD, and an optional second SRD when Continuation is set.
type RFC4175Header struct {
	ExtendedSeqNum uint16
	SRD            SampleRowData
	ExtraSRD       *SampleRowData
}

// Unmarshal parses an RFC 4175 header from buf (the RTP payload, i.e. the
// bytes following the 12-byte RTP header). It returns the number of header
// bytes consumed, so the caller can slice the remaining pixel payload.
func (h *RFC4175Header) Unmarshal(buf []byte) (n int, err error) {
	if len(buf) < 2+srdHeaderSize {
		return 0, errSRDTruncated
	}

	h.ExtendedSeqNum = binary.BigEndian.Uint16(buf[0:2])
	h.SRD, n = unmarshalSRD(buf[2:])
	n += 2

	if h.SRD.Continuation {
		if len(buf) < n+srdHeaderSize {
			return n, errSRDTruncated
		}
		extra, consumed := unmarshalSRD(buf[n:])
		h.ExtraSRD = &extra
		n += consumed
	} else {
		h.ExtraSRD = nil
	}

	return n, nil
}

func unmarshalSRD(buf []byte) (srd SampleRowData, n int) {
	lengthField := binary.BigEndian.Uint16(buf[0:2])
	rowField := binary.BigEndian.Uint16(buf[2:4])
	offsetField := binary.BigEndian.Uint16(buf[4:6])

	srd.UserMeta = lengthField&SRDLenUserMeta != 0
	srd.Length = lengthField & SRDLenMask
	srd.SecondField = rowField&SRDSecondField != 0
	srd.Row = rowField & SRDRowMask
	srd.Continuation = offsetField&SRDContinuation != 0
	srd.Offset = offsetField & SRDOffsetMask

	return srd, srdHeaderSize
}

// MarshalSize returns the number of bytes Marshal will write.
func (h RFC4175Header) MarshalSize() int {
	if h.ExtraSRD != nil {
		return 2 + 2*srdHeaderSize
	}

	return 2 + srdHeaderSize
}

// Marshal serializes the header. Used by tests and by any future transmit
// path; the receive core only calls Unmarshal.
func (h RFC4175Header) Marshal() ([]byte, error) {
	buf := make([]byte, 0, h.MarshalSize())
	buf = appendUint16(buf, h.ExtendedSeqNum)
	buf = appendSRD(buf, h.SRD, h.ExtraSRD != nil)

	if h.ExtraSRD != nil {
		buf = appendSRD(buf, *h.ExtraSRD, false)
	}

	return buf, nil
}

func appendSRD(buf []byte, srd SampleRowData, continuation bool) []byte {
	lengthField := srd.Length & SRDLenMask
	if srd.UserMeta {
		lengthField |= SRDLenUserMeta
	}

	rowField := srd.Row & SRDRowMask
	if srd.SecondField {
		rowField |= SRDSecondField
	}

	offsetField := srd.Offset & SRDOffsetMask
	if continuation {
		offsetField |= SRDContinuation
	}

	buf = appendUint16(buf, lengthField)
	buf = appendUint16(buf, rowField)
	buf = appendUint16(buf, offsetField)

	return buf
}
