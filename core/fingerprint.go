package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// FingerprintMode selects how file content fingerprints are computed.
type FingerprintMode string

const (
	// FingerprintStat derives the fingerprint from size and modification time.
	FingerprintStat FingerprintMode = "stat"
	// FingerprintContent hashes the whole file with BLAKE2b-256.
	FingerprintContent FingerprintMode = "content"
)

// ParseFingerprintMode validates a mode name. Empty selects FingerprintStat.
func ParseFingerprintMode(s string) (FingerprintMode, error) {
	switch FingerprintMode(s) {
	case "", FingerprintStat:
		return FingerprintStat, nil
	case FingerprintContent:
		return FingerprintContent, nil
	default:
		return "", fmt.Errorf("unknown fingerprint mode %q: must be one of stat, content", s)
	}
}

// Fingerprint computes the fingerprint of the file at path.
func Fingerprint(path string, info os.FileInfo, mode FingerprintMode) (string, error) {
	switch mode {
	case FingerprintContent:
		return contentFingerprint(path)
	default:
		return "stat:" + strconv.FormatInt(info.Size(), 10) + ":" +
			strconv.FormatInt(info.ModTime().UnixNano(), 10), nil
	}
}

func contentFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New(32, nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "blake2b:" + hex.EncodeToString(h.Sum(nil)), nil
}
