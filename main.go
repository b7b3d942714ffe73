package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/app"
)

func main() {
	// .envファイルがあれば読み込む（本番では環境変数を直接渡すため、失敗は無視する）
	_ = godotenv.Load()

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
