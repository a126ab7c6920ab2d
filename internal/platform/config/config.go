package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// OpenAI設定（Embeddings + LLM）
	OpenAI OpenAIConfig

	// 検索・回答生成の設定
	Retrieval RetrievalConfig

	// インデックス作成の設定
	Index IndexConfig

	// 認証設定
	Auth AuthConfig

	// HTTPサーバ設定
	Server ServerConfig
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OpenAIConfig はOpenAI API設定（Embeddings + LLM）
type OpenAIConfig struct {
	APIKey             string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingMaxTokens int    // 1回のEmbedding呼び出しに許容するトークン数
	AnswerModel        string // 回答生成用モデル
	DecompositionModel string // クエリ分解用モデル
}

// RetrievalConfig は検索パイプラインの設定
type RetrievalConfig struct {
	TopK           int     // クエリごとの検索件数
	ThresholdScore float64 // コサイン距離の足切り閾値（超えた候補は除外）
	MaxVariants    int     // クエリ分解で生成する最大バリアント数
}

// IndexConfig はチャンク化の設定
type IndexConfig struct {
	MaxSentences  int // 1チャンクあたりの文数
	GroupOverlap  int // チャンク間でオーバーラップする文数
	MinCharacters int // これ未満の文は前後と結合する
}

// AuthConfig はトークン発行の設定
type AuthConfig struct {
	SecretKey  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig はHTTPサーバ設定
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "shiori"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "shiori"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			EmbeddingMaxTokens: getEnvAsInt("OPENAI_EMBEDDING_MAX_TOKENS", 8000),
			AnswerModel:        getEnv("ANSWER_MODEL", "gpt-4o-mini"),
			DecompositionModel: getEnv("QUERY_DECOMPOSITION_MODEL", "gpt-4o-mini"),
		},
		Retrieval: RetrievalConfig{
			TopK:           getEnvAsInt("RETRIEVAL_TOPK", 5),
			ThresholdScore: getEnvAsFloat("THRESHOLD_SCORE", 0.6),
			MaxVariants:    getEnvAsInt("QUERY_MAX_VARIANTS", 3),
		},
		Index: IndexConfig{
			MaxSentences:  getEnvAsInt("CHUNK_MAX_SENTENCES", 3),
			GroupOverlap:  getEnvAsInt("CHUNK_GROUP_OVERLAP", 1),
			MinCharacters: getEnvAsInt("MIN_CHUNK_SIZE", 20),
		},
		Auth: AuthConfig{
			SecretKey:  getEnv("TOKEN_SECRET_KEY", ""),
			AccessTTL:  getEnvAsDuration("ACCESS_TOKEN_TTL", 10*time.Minute),
			RefreshTTL: getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("HTTP_PORT", 8080),
			AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")},
		},
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数をDurationとして取得します
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
