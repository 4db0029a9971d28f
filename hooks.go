package sluice

import (
	"time"

	"github.com/poiesic/sluice/ai/openai"
)

// Replaced in tests.
var (
	timeNow        = time.Now
	newLLMProvider = openai.NewProvider
)
