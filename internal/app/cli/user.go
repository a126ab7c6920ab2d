package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// UserRegisterAction はユーザーを登録するコマンドのアクション
func UserRegisterAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	email := cmd.String("email")
	password := cmd.String("password")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	user, err := appCtx.Auth.Register(ctx, email, password)
	if err != nil {
		return fmt.Errorf("ユーザー登録に失敗: %w", err)
	}

	fmt.Printf("registered: %s (%s)\n", user.Email, user.ID)
	return nil
}
