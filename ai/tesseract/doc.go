// Package tesseract implements ai.TextRecognizer with a local Tesseract
// installation through gosseract.
//
// gosseract needs cgo and the Tesseract and Leptonica libraries, so the real
// implementation is only compiled with the tesseract build tag:
//
//	go build -tags tesseract ./...
//
// Without the tag, New returns ai.ErrBackendUnavailable.
package tesseract
