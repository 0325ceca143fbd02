// SPDX-License-Identifier: MIT

// Package utils holds shared test helpers: deterministic signal
// generators and spectrum inspection functions.
package utils

import "math"

// GenerateSineWave returns size frames of a single-channel sine at the
// given frequency, in the float32 [-1, 1) range the capture path delivers.
func GenerateSineWave(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.9)
	}
	return buffer
}

// GenerateStereoSine returns size frames of interleaved stereo with the
// given frequency in the left channel and twice the frequency in the right.
func GenerateStereoSine(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size*2)
	for i := 0; i < size; i++ {
		t := float64(i) / sampleRate
		buffer[2*i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.9)
		buffer[2*i+1] = float32(math.Sin(2*math.Pi*2*frequency*t) * 0.9)
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude within
// [startBin, endBin], clamped to the slice bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
