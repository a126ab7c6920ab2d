package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jinford/shiori/internal/app/server"
)

// ServerStartAction はHTTPサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	port := appCtx.Config.Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	srv := server.New(
		server.Config{
			Port:           port,
			AllowedOrigins: appCtx.Config.Server.AllowedOrigins,
		},
		appCtx.Auth,
		appCtx.Library,
		appCtx.Importing,
		appCtx.Conversations,
		appCtx.Retrieval,
		appCtx.Logger,
	)

	return srv.Run(ctx)
}
