// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package rtcpfb

import "encoding/binary"

// NackTemplate holds one port's Ethernet/IPv4/UDP addressing for outgoing
// NACKs. It stores the addresses and ports, not pre-built header bytes:
// Build writes the whole header stack again for every NACK.
type NackTemplate struct {
	srcMAC, dstMAC [6]byte
	srcIP, dstIP   [4]byte
	srcPort        uint16
	dstPort        uint16
}

const (
	ethHeaderLen = 14
	ipHeaderLen  = 20
	udpHeaderLen = 8
)

// NewNackTemplate builds a template for outgoing NACKs on one port. Per
// §4.6, the source port is always dstPort+1.
func NewNackTemplate(srcMAC, dstMAC [6]byte, srcIP, dstIP [4]byte, dstPort uint16) *NackTemplate {
	return &NackTemplate{
		srcMAC:  srcMAC,
		dstMAC:  dstMAC,
		srcIP:   srcIP,
		dstIP:   dstIP,
		srcPort: dstPort + 1,
		dstPort: dstPort,
	}
}

// Build returns a complete Ethernet+IPv4+UDP frame carrying payload. Every
// header field is written from the template's addresses and ports; the
// IPv4 header checksum is computed and the UDP checksum is left zero.
func (t *NackTemplate) Build(payload []byte) []byte {
	frame := make([]byte, ethHeaderLen+ipHeaderLen+udpHeaderLen+len(payload))

	copy(frame[0:6], t.dstMAC[:])
	copy(frame[6:12], t.srcMAC[:])
	binary.BigEndian.PutUint16(frame[12:14], 0x0800) // EtherType IPv4

	ip := frame[ethHeaderLen : ethHeaderLen+ipHeaderLen]
	ip[0] = 0x45 // version 4, IHL 5
	ip[1] = 0
	binary.BigEndian.PutUint16(ip[2:4], uint16(ipHeaderLen+udpHeaderLen+len(payload))) //nolint:gosec
	binary.BigEndian.PutUint16(ip[4:6], 0)                                            // identification
	binary.BigEndian.PutUint16(ip[6:8], 0)                                            // flags/fragment offset
	ip[8] = 64                                                                        // TTL
	ip[9] = 17                                                                        // protocol UDP
	binary.BigEndian.PutUint16(ip[10:12], 0)                                          // checksum, filled below
	copy(ip[12:16], t.srcIP[:])
	copy(ip[16:20], t.dstIP[:])
	binary.BigEndian.PutUint16(ip[10:12], ipv4Checksum(ip))

	udp := frame[ethHeaderLen+ipHeaderLen:]
	binary.BigEndian.PutUint16(udp[0:2], t.srcPort)
	binary.BigEndian.PutUint16(udp[2:4], t.dstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(udpHeaderLen+len(payload))) //nolint:gosec
	binary.BigEndian.PutUint16(udp[6:8], 0)                                // checksum left unset; optional over IPv4
	copy(udp[8:], payload)

	return frame
}

func ipv4Checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	for sum > 0xffff {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum) //nolint:gosec
}
