package app

import (
	"errors"
	"fmt"
	"strings"
)

// Command はkdiaryバイナリのサブコマンドを表す。
type Command string

const (
	// CommandServe は日記APIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandMigrate はdiaries/usersテーブルのマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中サーバーの/healthを確認する。
	// distrolessイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

// commands はサポートするサブコマンドの一覧（usage表示順）。
var commands = []Command{CommandServe, CommandMigrate, CommandHealthcheck}

// ErrUnknownCommand は未知のサブコマンドが指定されたことを示す。
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数が空の場合はCommandServeを返す。
// 未知のサブコマンドはタイプミスでサーバーが起動しないようエラーにする。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return CommandServe, nil
	}

	for _, c := range commands {
		if args[0] == string(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q (usage: kdiary [%s])", ErrUnknownCommand, args[0], usage())
}

func usage() string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}
