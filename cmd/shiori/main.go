package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appcli "github.com/jinford/shiori/internal/app/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "shiori",
		Usage: "書籍ハイライトのナレッジベースと質問応答システム",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "サーバ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "HTTPサーバを起動",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.IntFlag{
								Name:  "port",
								Usage: "HTTPポート（省略時は環境変数の値）",
								Value: 8080,
							},
						},
						Action: appcli.ServerStartAction,
					},
				},
			},
			{
				Name:  "user",
				Usage: "ユーザー管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "register",
						Usage: "新しいユーザーを登録",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "email",
								Usage:    "メールアドレス",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "password",
								Usage:    "パスワード",
								Required: true,
							},
						},
						Action: appcli.UserRegisterAction,
					},
				},
			},
			{
				Name:  "import",
				Usage: "注釈ファイルの取り込みコマンド",
				Commands: []*cli.Command{
					{
						Name:  "kindle",
						Usage: "Kindleの「My Clippings.txt」を取り込む",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "user",
								Usage:    "対象ユーザーのメールアドレス",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "file",
								Usage:    "My Clippings.txtのパス",
								Required: true,
							},
						},
						Action: appcli.ImportKindleAction,
					},
					{
						Name:  "readwise",
						Usage: "ReadwiseのエクスポートCSVを取り込む",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "user",
								Usage:    "対象ユーザーのメールアドレス",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "file",
								Usage:    "エクスポートCSVのパス",
								Required: true,
							},
						},
						Action: appcli.ImportReadwiseAction,
					},
				},
			},
			{
				Name:  "index",
				Usage: "インデックス管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "rebuild",
						Usage: "ユーザーの全文書を再インデックス",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "user",
								Usage:    "対象ユーザーのメールアドレス",
								Required: true,
							},
						},
						Action: appcli.IndexRebuildAction,
					},
				},
			},
			{
				Name:  "related",
				Usage: "指定した文書に内容が近い他の文書を表示する",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "user",
						Usage:    "対象ユーザーのメールアドレス",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "doc",
						Usage:    "文書ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "表示する件数",
						Value: 5,
					},
				},
				Action: appcli.RelatedAction,
			},
			{
				Name:  "ask",
				Usage: "ナレッジベースに質問する",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "user",
						Usage:    "対象ユーザーのメールアドレス",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "show-sources",
						Usage: "引用元も出力する",
					},
				},
				Action: appcli.AskAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
