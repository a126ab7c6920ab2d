package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/shiori/internal/core/importing"
)

// ImportKindleAction はKindleの「My Clippings.txt」を取り込むコマンドのアクション
func ImportKindleAction(ctx context.Context, cmd *cli.Command) error {
	return runImport(ctx, cmd, func(r io.Reader, _ *slog.Logger) ([]*importing.Annotation, error) {
		return importing.ParseKindleClippings(r)
	})
}

// ImportReadwiseAction はReadwiseのエクスポートCSVを取り込むコマンドのアクション
func ImportReadwiseAction(ctx context.Context, cmd *cli.Command) error {
	return runImport(ctx, cmd, func(r io.Reader, logger *slog.Logger) ([]*importing.Annotation, error) {
		return importing.ParseReadwiseCSV(r, logger)
	})
}

func runImport(ctx context.Context, cmd *cli.Command, parse func(io.Reader, *slog.Logger) ([]*importing.Annotation, error)) error {
	envFile := cmd.String("env")
	email := cmd.String("user")
	filePath := cmd.String("file")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	user, err := appCtx.Auth.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("ファイルを開けません: %w", err)
	}
	defer file.Close()

	annotations, err := parse(file, appCtx.Logger)
	if err != nil {
		return fmt.Errorf("ファイルの解析に失敗: %w", err)
	}

	result, err := appCtx.Importing.ImportAnnotations(ctx, user.ID, annotations)
	if err != nil {
		return fmt.Errorf("インポートに失敗: %w", err)
	}

	fmt.Printf("new imports: %d, skipped: %d, indexed chunks: %d\n",
		result.NewImports, result.Skipped, result.IndexedChunks)
	return nil
}
