package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/shiori/internal/core/indexing"
	"github.com/jinford/shiori/internal/core/retrieval"
)

const (
	// DefaultEmbeddingModel はモデル未指定時のデフォルトモデル
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultEmbeddingDimension はOpenAI推奨のデフォルト次元
	DefaultEmbeddingDimension = 1536

	// DefaultEmbeddingMaxTokens はモデルが一度に受け付けるトークン数の上限
	DefaultEmbeddingMaxTokens = 8000

	// embeddingEncoding はトークン数の計測に使うエンコーディング
	embeddingEncoding = "cl100k_base"

	// maxBatchSize はOpenAI APIが1リクエストで受け付ける最大件数
	maxBatchSize = 100
)

// Embedder は OpenAI API を使用してテキストをベクトルに変換する。
// 上限を超える長さのテキストは固定長のウィンドウに分割し、
// 各ウィンドウのベクトルを要素ごとの最大値で集約する
type Embedder struct {
	client    openai.Client
	encoding  *tiktoken.Tiktoken
	model     string
	dimension int
	maxTokens int
}

type embedderOptions struct {
	model     string
	dimension int
	maxTokens int
}

// EmbedderOption は Embedder のオプション設定
type EmbedderOption func(*embedderOptions)

// WithEmbeddingModel はモデル名を上書きする
func WithEmbeddingModel(model string) EmbedderOption {
	return func(o *embedderOptions) {
		o.model = model
	}
}

// WithEmbeddingDimension はベクトル次元を上書きする
func WithEmbeddingDimension(dimension int) EmbedderOption {
	return func(o *embedderOptions) {
		o.dimension = dimension
	}
}

// WithEmbeddingMaxTokens はトークン数の上限を上書きする
func WithEmbeddingMaxTokens(maxTokens int) EmbedderOption {
	return func(o *embedderOptions) {
		o.maxTokens = maxTokens
	}
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(apiKey string, opts ...EmbedderOption) (*Embedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	options := embedderOptions{
		model:     DefaultEmbeddingModel,
		dimension: DefaultEmbeddingDimension,
		maxTokens: DefaultEmbeddingMaxTokens,
	}
	for _, opt := range opts {
		opt(&options)
	}

	encoding, err := tiktoken.GetEncoding(embeddingEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", embeddingEncoding, err)
	}

	return &Embedder{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
		),
		encoding:  encoding,
		model:     options.model,
		dimension: options.dimension,
		maxTokens: options.maxTokens,
	}, nil
}

// Embed は単一テキストの Embedding を生成する
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = preprocess(text)

	if e.countTokens(text) <= e.maxTokens {
		vectors, err := e.request(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		return vectors[0], nil
	}

	return e.embedLongText(ctx, text)
}

// EmbedBatch は複数テキストの Embedding を生成する。
// 戻り値はtextsと同じ長さ・同じ順序になる
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &ServiceError{Message: "no texts provided"}
	}

	results := make([][]float32, len(texts))

	// APIの上限を超えるテキストは個別に処理し、それ以外は
	// maxBatchSize件ずつまとめてリクエストする
	var (
		pending        []string
		pendingIndexes []int
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		vectors, err := e.request(ctx, pending)
		if err != nil {
			return err
		}
		for i, vector := range vectors {
			results[pendingIndexes[i]] = vector
		}
		pending = nil
		pendingIndexes = nil
		return nil
	}

	for i, text := range texts {
		text = preprocess(text)

		if e.countTokens(text) > e.maxTokens {
			vector, err := e.embedLongText(ctx, text)
			if err != nil {
				return nil, err
			}
			results[i] = vector
			continue
		}

		pending = append(pending, text)
		pendingIndexes = append(pendingIndexes, i)
		if len(pending) == maxBatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return results, nil
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}

// Dimension はベクトル次元数を返す
func (e *Embedder) Dimension() int {
	return e.dimension
}

// embedLongText は上限を超えるテキストを固定長の文字ウィンドウに分割し、
// 各ウィンドウのベクトルを要素ごとの最大値で1つに集約する
func (e *Embedder) embedLongText(ctx context.Context, text string) ([]float32, error) {
	windows := splitIntoWindows(text, e.maxTokens)

	vectors, err := e.request(ctx, windows)
	if err != nil {
		return nil, err
	}

	return maxAggregate(vectors), nil
}

func (e *Embedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}

	if len(texts) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(texts[0]),
		}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		}
	}

	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, &ServiceError{Message: "failed to generate embeddings", Err: err}
	}

	if len(resp.Data) != len(texts) {
		return nil, &ServiceError{Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data))}
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vector := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vector[j] = float32(v)
		}
		embeddings[i] = vector
	}

	return embeddings, nil
}

func (e *Embedder) countTokens(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}

// preprocess は埋め込み品質を安定させるための前処理を行う
func preprocess(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}

// splitIntoWindows はテキストをsize文字ずつのウィンドウに分割する
func splitIntoWindows(text string, size int) []string {
	runes := []rune(text)

	var windows []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
	}
	return windows
}

// maxAggregate は複数のベクトルを要素ごとの最大値で1つに集約する
func maxAggregate(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	result := make([]float32, len(vectors[0]))
	copy(result, vectors[0])

	for _, vector := range vectors[1:] {
		for i, v := range vector {
			if v > result[i] {
				result[i] = v
			}
		}
	}
	return result
}

// インターフェース実装の確認
var (
	_ indexing.Embedder  = (*Embedder)(nil)
	_ retrieval.Embedder = (*Embedder)(nil)
)
