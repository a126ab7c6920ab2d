package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/shiori/internal/core/library"
	"github.com/jinford/shiori/internal/core/retrieval"
)

// LLMClient はチャット補完を実行する
type LLMClient interface {
	// Complete はmodelにsystemPromptとuserPromptを渡して応答テキストを返す
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// Retriever は質問に関連する候補チャンクを収集する
type Retriever interface {
	AggregateCandidates(ctx context.Context, queries []string, filter retrieval.SearchFilter) ([]*retrieval.Candidate, error)
}

// DocumentResolver は引用元IDから文書を引き当てる
type DocumentResolver interface {
	// GetDocument はユーザーの文書を取得する。
	// 存在しない場合はlibrary.ErrDocumentNotFoundを返す
	GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*library.Document, error)
}

// Config は言語モデルと検索に関する設定
type Config struct {
	AnswerModel        string // 回答生成に使うモデル
	DecompositionModel string // クエリ分解に使うモデル
	MaxVariants        int    // 生成する検索クエリの最大数
}

// Service は会話の管理とRAGパイプラインによる質問応答を担う
type Service struct {
	repo      Repository
	tx        TxProvider
	llm       LLMClient
	retriever Retriever
	resolver  DocumentResolver
	cfg       Config
	logger    *slog.Logger
}

type ServiceOption func(*Service)

// WithLogger はServiceにロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいServiceを作成する
func NewService(repo Repository, tx TxProvider, llm LLMClient, retriever Retriever, resolver DocumentResolver, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		tx:        tx,
		llm:       llm,
		retriever: retriever,
		resolver:  resolver,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartConversation は新しい会話を作成して返す
func (s *Service) StartConversation(ctx context.Context, userID uuid.UUID) (*Conversation, error) {
	conv := &Conversation{
		ID:     uuid.New(),
		UserID: userID,
		Model:  s.cfg.AnswerModel,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.logger.InfoContext(ctx, "conversation started",
		slog.String("conversation_id", conv.ID.String()),
	)

	return conv, nil
}

// GetConversation は会話とその全メッセージを返す
func (s *Service) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, []*Message, error) {
	conv, err := s.repo.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return conv, messages, nil
}

// ListConversations はユーザーの会話一覧をメタデータのみで返す
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*Conversation, error) {
	return s.repo.ListConversations(ctx, userID, opts)
}

// GetMessage はユーザーのメッセージを返す
func (s *Service) GetMessage(ctx context.Context, userID, messageID uuid.UUID) (*Message, error) {
	return s.repo.GetMessage(ctx, userID, messageID)
}

// CompleteTurn は質問に対する回答を生成し、ユーザーの質問と回答を
// 会話に記録する。回答は知識ベースから取得したチャンクに基づいて
// 生成され、引用元の文書IDが埋め込まれる
func (s *Service) CompleteTurn(ctx context.Context, userID, conversationID uuid.UUID, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if _, err := s.repo.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	queries := s.expandQuery(ctx, query)

	candidates, err := s.retriever.AggregateCandidates(ctx, queries, retrieval.SearchFilter{UserID: mo.Some(userID)})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve candidates: %w", err)
	}

	s.logger.InfoContext(ctx, "retrieved candidates for question",
		slog.String("conversation_id", conversationID.String()),
		slog.Int("queries", len(queries)),
		slog.Int("candidates", len(candidates)),
	)

	answer, err := s.llm.Complete(ctx, s.cfg.AnswerModel, systemPrompt, buildAnswerPrompt(query, candidates))
	if err != nil {
		return nil, &LanguageModelError{Op: "answer", Err: err}
	}

	answer, sourceIDs, sources, err := s.resolveCitations(ctx, userID, answer)
	if err != nil {
		return nil, err
	}

	var systemMsg *Message
	err = s.tx.WithinTx(ctx, func(repo Repository) error {
		userMsg := &Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			Sender:         SenderUser,
			Content:        query,
		}
		if _, err := repo.AppendMessage(ctx, userMsg); err != nil {
			return fmt.Errorf("failed to append user message: %w", err)
		}

		msg := &Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			Sender:         SenderSystem,
			Content:        answer,
			SourceIDs:      sourceIDs,
		}
		appended, err := repo.AppendMessage(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to append system message: %w", err)
		}
		systemMsg = appended
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Answer{
		Message: systemMsg,
		Prompt:  query,
		Sources: sources,
	}, nil
}

// expandQuery はユーザーの質問を複数の検索クエリに分解する。
// 元の質問は常に末尾に含まれる。言語モデルの呼び出しに失敗した
// 場合は元の質問だけで検索を続行する
func (s *Service) expandQuery(ctx context.Context, query string) []string {
	response, err := s.llm.Complete(ctx, s.cfg.DecompositionModel, systemPrompt, buildDecompositionPrompt(query, s.cfg.MaxVariants))
	if err != nil {
		s.logger.WarnContext(ctx, "query decomposition failed, falling back to original query",
			slog.String("error", err.Error()),
		)
		return []string{query}
	}

	var queries []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
	}

	return append(queries, query)
}

// resolveCitations は回答から引用元IDを抜き出し、ユーザーの文書に
// 引き当てる。引き当てられなかったIDの引用マーカーは回答テキストから
// 除去する
func (s *Service) resolveCitations(ctx context.Context, userID uuid.UUID, answer string) (string, []uuid.UUID, []*Source, error) {
	rawIDs := ExtractSourceIDs(answer)

	var (
		validIDs   []uuid.UUID
		invalidIDs []string
		sources    []*Source
	)
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.logger.WarnContext(ctx, "answer cited a malformed source id", slog.String("source_id", raw))
			invalidIDs = append(invalidIDs, raw)
			continue
		}

		doc, err := s.resolver.GetDocument(ctx, userID, id)
		if err != nil {
			if errors.Is(err, library.ErrDocumentNotFound) {
				s.logger.WarnContext(ctx, "answer cited an unknown source id", slog.String("source_id", raw))
				invalidIDs = append(invalidIDs, raw)
				continue
			}
			return "", nil, nil, fmt.Errorf("failed to resolve source %s: %w", raw, err)
		}

		validIDs = append(validIDs, id)
		sources = append(sources, &Source{
			ID:      doc.ID,
			Title:   doc.Title,
			Authors: doc.Authors,
			Content: doc.Content,
		})
	}

	return RemoveInvalidCitations(answer, invalidIDs), validIDs, sources, nil
}
