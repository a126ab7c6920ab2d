package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// IndexRebuildAction はユーザーの全文書を再インデックスするコマンドの
// アクション。インデックス済みのチャンクは重複チェックでスキップされる
// ため、取り込み後に設定を変えた場合の追い掛けインデックスに使える
func IndexRebuildAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	email := cmd.String("user")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	user, err := appCtx.Auth.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	docs, err := appCtx.Library.ListDocuments(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("文書一覧の取得に失敗: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("no documents to index")
		return nil
	}

	inserted, err := appCtx.Indexing.IndexDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("インデックスに失敗: %w", err)
	}

	fmt.Printf("documents: %d, indexed chunks: %d\n", len(docs), inserted)
	return nil
}
