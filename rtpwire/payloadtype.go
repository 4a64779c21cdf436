// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package rtpwire

// ST 2110 never uses the IANA static payload type table: every session's
// payload type is a dynamically negotiated value carried out-of-band (SDP,
// or the caller's own config), per RFC 3551 §3 guidance for dynamic types.
const (
	// PayloadTypeDynamicFirst is the first payload type number available
	// for dynamic assignment (RFC 3551 §3).
	PayloadTypeDynamicFirst = 96
	// PayloadTypeDynamicLast is the last payload type number available
	// for dynamic assignment.
	PayloadTypeDynamicLast = 127
)

// IsDynamicPayloadType reports whether pt falls in the dynamically
// assignable range that every ST 2110 session configures its payload type
// from.
func IsDynamicPayloadType(pt uint8) bool {
	return pt >= PayloadTypeDynamicFirst && pt <= PayloadTypeDynamicLast
}
