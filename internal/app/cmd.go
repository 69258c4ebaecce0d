package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はcronスケジューラでスクレイプと期限切れ削除を定期実行することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandScrape はスクレイプサイクルを1回だけ実行して終了することを示す。
	CommandScrape Command = "scrape"
	// CommandExpire は期限切れ記事の削除を1回だけ実行して終了することを示す。
	CommandExpire Command = "expire"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandServe, CommandMigrate, CommandScrape, CommandExpire, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}
