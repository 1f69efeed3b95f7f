package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/snow-ghost/rubric/core"
)

// DefaultEncoding is the tiktoken encoding used when none is configured
const DefaultEncoding = "cl100k_base"

// Encoder represents a token encoder
type Encoder interface {
	Encode(text string) []int
	Count(text string) int
}

// TiktokenEncoder implements Encoder using tiktoken-go
type TiktokenEncoder struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenEncoder creates a new tiktoken encoder
func NewTiktokenEncoder(encodingName string) (*TiktokenEncoder, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}

	return &TiktokenEncoder{
		encoding: encoding,
	}, nil
}

// NewModelEncoder creates an encoder for a model name such as "gpt-4o"
func NewModelEncoder(model string) (*TiktokenEncoder, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding for model %s: %w", model, err)
	}
	return &TiktokenEncoder{encoding: encoding}, nil
}

// Encode converts text to tokens
func (e *TiktokenEncoder) Encode(text string) []int {
	return e.encoding.Encode(text, nil, nil)
}

// Count returns the number of tokens in text
func (e *TiktokenEncoder) Count(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}

// CharEncoder estimates ~4 characters per token without a vocabulary
type CharEncoder struct{}

// Encode returns placeholder token ids, one per estimated token
func (CharEncoder) Encode(text string) []int {
	tokens := make([]int, CharEncoder{}.Count(text))
	for i := range tokens {
		tokens[i] = i
	}
	return tokens
}

// Count returns len(text)/4, with at least one token for non-empty text
func (CharEncoder) Count(text string) int {
	count := len(text) / 4
	if count < 1 && len(text) > 0 {
		count = 1
	}
	return count
}

// CountFunc adapts an encoder to a length-penalty counter
func CountFunc(e Encoder) core.CountFunc {
	return e.Count
}

// NewCounter returns a counter by name: "words", "chars" or a tiktoken encoding name
func NewCounter(name string) (core.CountFunc, error) {
	switch name {
	case "", "words":
		return core.WordCount, nil
	case "chars":
		return CountFunc(CharEncoder{}), nil
	default:
		enc, err := NewTiktokenEncoder(name)
		if err != nil {
			return nil, err
		}
		return CountFunc(enc), nil
	}
}
