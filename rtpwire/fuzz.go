//go:build gofuzz

// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package rtpwire

// Fuzz implements a randomized fuzz test of the RFC 4175 header parser
// using go-fuzz.
//
// To run the fuzzer, first download go-fuzz:
// `go get github.com/dvyukov/go-fuzz/...`
//
// Then build the testing package:
// `go-fuzz-build github.com/prankurgit/Media-Transport-Library/rtpwire`
//
// And run the fuzzer on the corpus:
// ```
// go-fuzz -bin=rtpwire-fuzz.zip -workdir=fuzzer
// ```
func Fuzz(data []byte) int {
	var hdr RFC4175Header
	if _, err := hdr.Unmarshal(data); err != nil {
		return 0
	}

	if _, err := hdr.Marshal(); err != nil {
		panic(err)
	}

	return 1
}
