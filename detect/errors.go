// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package detect

import "errors"

// errDetectionDisabled is returned by Detector.Err once the detector has
// been disabled.
var errDetectionDisabled = errors.New("detect: detector is disabled")

// errDetectionFailed is reported once the detector exhausts maxResamples
// without three consecutive frames agreeing on rate and geometry.
var errDetectionFailed = errors.New("detect: exhausted resample budget without a stable format")
