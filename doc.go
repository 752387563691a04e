// Package ape implements the encoder half of the Monkey's Audio (APE)
// lossless codec: PCM (or IEEE float) in, a self-describing compressed
// file out, driven by a pool of goroutines running the predictive
// compression pipeline and range coder in parallel while a single
// producer writes finished frames to the container in order.
//
// A typical encode looks like:
//
//	src, err := pcmsource.Open(inputFile)
//	enc, err := ape.New(outputFile, ape.Config{
//		Format:      src.Format(),
//		Level:       ape.Normal,
//		TotalBlocks: src.TotalBlocks(),
//	})
//	for { /* read pcm from src, */ enc.EncodeFrame(pcm) }
//	enc.Finish()
package ape
