package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// AskAction はナレッジベースに1回だけ質問するコマンドのアクション。
// 新しい会話を作成して質問を投げ、回答と引用元を出力する
func AskAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	email := cmd.String("user")
	showSources := cmd.Bool("show-sources")

	question := cmd.Args().First()
	if question == "" {
		return fmt.Errorf("質問文を指定してください")
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

	conv, err := appCtx.Conversations.StartConversation(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("会話の作成に失敗: %w", err)
	}

	answer, err := appCtx.Conversations.CompleteTurn(ctx, user.ID, conv.ID, question)
	if err != nil {
		return fmt.Errorf("質問応答に失敗: %w", err)
	}

	fmt.Println(answer.Message.Content)

	if showSources && len(answer.Sources) > 0 {
		fmt.Println("\n--- 引用元 ---")
		for i, source := range answer.Sources {
			fmt.Printf("[%d] %s / %s\n", i+1, source.Title, source.Authors)
		}
	}

	return nil
}
