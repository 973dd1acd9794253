// Package clock は注入可能な時刻源を提供する。
// 日次クォータの日付境界判定をテストから制御できるようにするための抽象化。
package clock

import "time"

// Clock は現在時刻の取得インターフェース。
type Clock interface {
	Now() time.Time
}

// systemClock はtime.Nowをそのまま返す実装。
type systemClock struct{}

// New はシステム時計を返す。
func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fixed は常に同じ時刻を返すClock。テスト用。
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time {
	return f.T
}

// Advance は保持している時刻をdだけ進める。
func (f *Fixed) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
