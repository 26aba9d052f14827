// Package ratelimit は固定ウィンドウ方式のレート制限カウンタを提供する。
// ウィンドウはキーごとに最初のリクエスト時点から開始し、ウィンドウ満了で
// カウントがリセットされる。ストアはミドルウェア層から利用される。
package ratelimit

import (
	"context"
	"time"
)

// Store は固定ウィンドウカウンタの永続化を抽象化する。
// 単一プロセス運用ではメモリ実装、複数インスタンス運用ではRedis実装を使う。
type Store interface {
	// Incr はキーのカウントを1増やし、増加後のカウントと
	// 現在のウィンドウが満了するまでの残り時間を返す。
	// キーの最初のIncrで新しいウィンドウが開始される。
	Incr(ctx context.Context, key string, window time.Duration) (count int, retryAfter time.Duration, err error)
}
