package ai

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/jabiru-analytics/jabiru/internal/utils"
)

// FallbackEncoding is used for models the tokenizer does not know.
const FallbackEncoding = "cl100k_base"

const tokenMemoSize = 10

var loaderOnce sync.Once

type tokenKey struct {
	model string
	text  string
}

// Tokenizer counts tokens with the model's BPE encoding and remembers recent answers.
type Tokenizer struct {
	defaultModel string
	memo         *lru.Cache[tokenKey, int]
}

// NewTokenizer returns a tokenizer that counts for defaultModel when no model is given.
// BPE ranks are loaded from the embedded offline tables, so counting never touches the network.
func NewTokenizer(defaultModel string) *Tokenizer {
	loaderOnce.Do(func() { tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader()) })
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	memo, _ := lru.New[tokenKey, int](tokenMemoSize)
	return &Tokenizer{defaultModel: defaultModel, memo: memo}
}

// Count returns the number of tokens in text for model (or the default model).
func (t *Tokenizer) Count(text, model string) int {
	if model == "" {
		model = t.defaultModel
	}
	key := tokenKey{model: model, text: text}
	if n, ok := t.memo.Get(key); ok {
		return n
	}
	n := countTokens(text, model)
	t.memo.Add(key, n)
	return n
}

func countTokens(text, model string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(FallbackEncoding)
	}
	if err != nil {
		return utils.CountTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}
