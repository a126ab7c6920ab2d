package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

// RelatedAction は指定した文書に内容が近い他の文書を表示するコマンドの
// アクション
func RelatedAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	email := cmd.String("user")
	limit := cmd.Int("limit")

	documentID, err := uuid.Parse(cmd.String("doc"))
	if err != nil {
		return fmt.Errorf("不正な文書IDです: %w", err)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	user, err := appCtx.Auth.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	if _, err := appCtx.Library.GetDocument(ctx, user.ID, documentID); err != nil {
		return fmt.Errorf("文書の取得に失敗: %w", err)
	}

	matches, err := appCtx.Retrieval.FindSimilarDocuments(ctx, user.ID, documentID, limit)
	if err != nil {
		return fmt.Errorf("関連文書の検索に失敗: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("no related documents found")
		return nil
	}

	for i, match := range matches {
		doc, err := appCtx.Library.GetDocument(ctx, user.ID, match.SourceID)
		if err != nil {
			return fmt.Errorf("文書の取得に失敗: %w", err)
		}
		fmt.Printf("[%d] %s / %s (score: %.4f)\n", i+1, doc.Title, doc.Authors, match.Score)
	}
	return nil
}
