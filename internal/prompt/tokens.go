package prompt

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens estimates the token count of text using the GPT-4 encoding,
// which is close enough for every supported provider. Falls back to a
// four-characters-per-token estimate if the codec is unavailable.
func CountTokens(text string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})

	if codec == nil {
		return len(text) / 4
	}

	count, err := codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
