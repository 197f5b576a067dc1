package chunk

import "strings"

// TokenEstimator estimates the token count of a piece of text. Exact parity
// with any particular tokenizer is not a goal; the estimate only has to be
// stable and roughly proportional.
type TokenEstimator func(text string) int

// Subword tokenizers emit about 4 tokens for every 3 words of English prose.
const tokensPerWordNum, tokensPerWordDen = 4, 3

// EstimateTokens is the default TokenEstimator: whitespace-delimited word
// count scaled by a fixed ratio.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return (words*tokensPerWordNum + tokensPerWordDen - 1) / tokensPerWordDen
}
