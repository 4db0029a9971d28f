// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"regexp"
	"strings"
)

var (
	// a key missing its opening quote: `{label":` or `, confidence":`
	halfQuotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)":`)
	// a trailing comma before a closing brace or bracket
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// repairJSON fixes the defects vision models commonly produce in otherwise
// well-formed JSON objects: text around the object, keys missing their
// opening quote, and trailing commas.
func repairJSON(s string) string {
	s = outermostObject(s)
	s = halfQuotedKey.ReplaceAllString(s, `$1"$2":`)
	return trailingComma.ReplaceAllString(s, `$1`)
}

// outermostObject returns the span from the first '{' to the last '}', or s
// unchanged when there is no such span.
func outermostObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
