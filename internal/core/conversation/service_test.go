package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/shiori/internal/core/library"
	"github.com/jinford/shiori/internal/core/retrieval"
)

type stubRepository struct {
	conversations map[uuid.UUID]*Conversation
	appended      []*Message
	nextIndex     int
}

func newStubRepository() *stubRepository {
	return &stubRepository{conversations: make(map[uuid.UUID]*Conversation)}
}

func (s *stubRepository) CreateConversation(_ context.Context, conv *Conversation) error {
	s.conversations[conv.ID] = conv
	return nil
}

func (s *stubRepository) GetConversation(_ context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *stubRepository) ListConversations(_ context.Context, _ uuid.UUID, _ ListOptions) ([]*Conversation, error) {
	return nil, nil
}

func (s *stubRepository) ListMessages(_ context.Context, _ uuid.UUID) ([]*Message, error) {
	return s.appended, nil
}

func (s *stubRepository) GetMessage(_ context.Context, _, _ uuid.UUID) (*Message, error) {
	return nil, ErrMessageNotFound
}

func (s *stubRepository) AppendMessage(_ context.Context, msg *Message) (*Message, error) {
	msg.Index = s.nextIndex
	s.nextIndex++
	s.appended = append(s.appended, msg)
	return msg, nil
}

// stubTxProvider はトランザクションなしでfnをそのまま実行する
type stubTxProvider struct {
	repo Repository
}

func (s *stubTxProvider) WithinTx(_ context.Context, fn func(repo Repository) error) error {
	return fn(s.repo)
}

type stubLLM struct {
	decompositionResponse string
	decompositionErr      error
	answerResponse        string
	answerErr             error

	answerPrompts []string
}

func (s *stubLLM) Complete(_ context.Context, model, _, userPrompt string) (string, error) {
	if strings.Contains(userPrompt, "Generated queries:") {
		return s.decompositionResponse, s.decompositionErr
	}
	s.answerPrompts = append(s.answerPrompts, userPrompt)
	return s.answerResponse, s.answerErr
}

type stubRetriever struct {
	candidates      []*retrieval.Candidate
	capturedQueries [][]string
	capturedFilter  retrieval.SearchFilter
}

func (s *stubRetriever) AggregateCandidates(_ context.Context, queries []string, filter retrieval.SearchFilter) ([]*retrieval.Candidate, error) {
	s.capturedQueries = append(s.capturedQueries, queries)
	s.capturedFilter = filter
	return s.candidates, nil
}

type stubResolver struct {
	docs map[uuid.UUID]*library.Document
}

func (s *stubResolver) GetDocument(_ context.Context, _, documentID uuid.UUID) (*library.Document, error) {
	doc, ok := s.docs[documentID]
	if !ok {
		return nil, library.ErrDocumentNotFound
	}
	return doc, nil
}

func defaultConfig() Config {
	return Config{
		AnswerModel:        "gpt-4o-mini",
		DecompositionModel: "gpt-4o-mini",
		MaxVariants:        3,
	}
}

func TestService_CompleteTurn(t *testing.T) {
	userID := uuid.New()

	setup := func(llm *stubLLM, retriever *stubRetriever, resolver *stubResolver) (*Service, *stubRepository, uuid.UUID) {
		repo := newStubRepository()
		convID := uuid.New()
		repo.conversations[convID] = &Conversation{ID: convID, UserID: userID}
		svc := NewService(repo, &stubTxProvider{repo: repo}, llm, retriever, resolver, defaultConfig())
		return svc, repo, convID
	}

	t.Run("質問と回答が1つのトランザクションで記録される", func(t *testing.T) {
		docID := uuid.New()
		llm := &stubLLM{
			decompositionResponse: "variant one\nvariant two",
			answerResponse:        "Discipline matters ```" + docID.String() + "```.",
		}
		retriever := &stubRetriever{candidates: []*retrieval.Candidate{
			{SourceID: docID, Text: "Success is due to discipline", Score: 0.2},
		}}
		resolver := &stubResolver{docs: map[uuid.UUID]*library.Document{
			docID: {ID: docID, Title: "Atomic Habits", Authors: "James Clear", Content: "Success is due to discipline"},
		}}
		svc, repo, convID := setup(llm, retriever, resolver)

		answer, err := svc.CompleteTurn(context.Background(), userID, convID, "What causes success?")
		require.NoError(t, err)

		require.Len(t, repo.appended, 2)
		assert.Equal(t, SenderUser, repo.appended[0].Sender)
		assert.Equal(t, "What causes success?", repo.appended[0].Content)
		assert.Equal(t, SenderSystem, repo.appended[1].Sender)
		assert.Equal(t, []uuid.UUID{docID}, repo.appended[1].SourceIDs)

		assert.Equal(t, repo.appended[1], answer.Message)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, "Atomic Habits", answer.Sources[0].Title)
	})

	t.Run("検索クエリはバリアントの後に元の質問が並ぶ", func(t *testing.T) {
		llm := &stubLLM{
			decompositionResponse: "variant one\n\nvariant two\n",
			answerResponse:        "no citations here",
		}
		retriever := &stubRetriever{}
		svc, _, convID := setup(llm, retriever, &stubResolver{})

		_, err := svc.CompleteTurn(context.Background(), userID, convID, "original question")
		require.NoError(t, err)

		require.Len(t, retriever.capturedQueries, 1)
		assert.Equal(t, []string{"variant one", "variant two", "original question"}, retriever.capturedQueries[0])
		assert.Equal(t, mo.Some(userID), retriever.capturedFilter.UserID)
	})

	t.Run("クエリ分解に失敗しても元の質問だけで続行する", func(t *testing.T) {
		llm := &stubLLM{
			decompositionErr: errors.New("rate limited"),
			answerResponse:   "no citations here",
		}
		retriever := &stubRetriever{}
		svc, _, convID := setup(llm, retriever, &stubResolver{})

		_, err := svc.CompleteTurn(context.Background(), userID, convID, "original question")
		require.NoError(t, err)

		require.Len(t, retriever.capturedQueries, 1)
		assert.Equal(t, []string{"original question"}, retriever.capturedQueries[0])
	})

	t.Run("引き当てられない引用は回答から除去される", func(t *testing.T) {
		validID := uuid.New()
		unknownID := uuid.New()
		llm := &stubLLM{
			answerResponse: "Known ```" + validID.String() + "``` and unknown ```" + unknownID.String() + "```.",
		}
		resolver := &stubResolver{docs: map[uuid.UUID]*library.Document{
			validID: {ID: validID, Title: "Deep Work"},
		}}
		svc, repo, convID := setup(llm, &stubRetriever{}, resolver)

		answer, err := svc.CompleteTurn(context.Background(), userID, convID, "question")
		require.NoError(t, err)

		assert.Equal(t, "Known ```"+validID.String()+"``` and unknown .", answer.Message.Content)
		assert.Equal(t, []uuid.UUID{validID}, repo.appended[1].SourceIDs)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, "Deep Work", answer.Sources[0].Title)
	})

	t.Run("UUIDとして不正な引用も除去される", func(t *testing.T) {
		llm := &stubLLM{
			answerResponse: "Bad ```not-a-uuid``` citation.",
		}
		svc, _, convID := setup(llm, &stubRetriever{}, &stubResolver{})

		answer, err := svc.CompleteTurn(context.Background(), userID, convID, "question")
		require.NoError(t, err)

		assert.Equal(t, "Bad  citation.", answer.Message.Content)
		assert.Empty(t, answer.Message.SourceIDs)
	})

	t.Run("空の質問はエラー", func(t *testing.T) {
		svc, _, convID := setup(&stubLLM{}, &stubRetriever{}, &stubResolver{})

		_, err := svc.CompleteTurn(context.Background(), userID, convID, "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("存在しない会話はエラー", func(t *testing.T) {
		svc, _, _ := setup(&stubLLM{}, &stubRetriever{}, &stubResolver{})

		_, err := svc.CompleteTurn(context.Background(), userID, uuid.New(), "question")
		assert.ErrorIs(t, err, ErrConversationNotFound)
	})

	t.Run("回答生成の失敗はLanguageModelErrorになる", func(t *testing.T) {
		llm := &stubLLM{
			decompositionResponse: "variant",
			answerErr:             errors.New("context deadline exceeded"),
		}
		svc, repo, convID := setup(llm, &stubRetriever{}, &stubResolver{})

		_, err := svc.CompleteTurn(context.Background(), userID, convID, "question")

		var lmErr *LanguageModelError
		require.ErrorAs(t, err, &lmErr)
		assert.Equal(t, "answer", lmErr.Op)
		assert.Empty(t, repo.appended)
	})
}

func TestService_StartConversation(t *testing.T) {
	repo := newStubRepository()
	svc := NewService(repo, &stubTxProvider{repo: repo}, &stubLLM{}, &stubRetriever{}, &stubResolver{}, defaultConfig())

	userID := uuid.New()
	conv, err := svc.StartConversation(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, conv.UserID)
	assert.Equal(t, "gpt-4o-mini", conv.Model)
	assert.Contains(t, repo.conversations, conv.ID)
}
