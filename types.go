package ape

import "github.com/sbooth/monkeysaudio/internal/audioformat"

// CompressionLevel selects frame size and predictor depth. Re-exported
// from internal/audioformat so callers never need that import path.
type CompressionLevel = audioformat.CompressionLevel

const (
	Fast      = audioformat.Fast
	Normal    = audioformat.Normal
	High      = audioformat.High
	ExtraHigh = audioformat.ExtraHigh
	Insane    = audioformat.Insane
)

// Flags is the per-file bitmap of source-container properties recorded in
// the descriptor/header.
type Flags = audioformat.Flags

const (
	FlagFloatingPoint   = audioformat.FlagFloatingPoint
	FlagCreateWAVHeader = audioformat.FlagCreateWAVHeader
	FlagAIFF            = audioformat.FlagAIFF
	FlagW64             = audioformat.FlagW64
	FlagSND             = audioformat.FlagSND
	FlagCAF             = audioformat.FlagCAF
	FlagBigEndian       = audioformat.FlagBigEndian
	FlagSigned8Bit      = audioformat.FlagSigned8Bit
)

// SampleFormat fully describes one PCM stream being compressed.
type SampleFormat = audioformat.SampleFormat
