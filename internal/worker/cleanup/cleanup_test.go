package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// mockExecutor はExecutorのモック実装。発行されたクエリと引数を記録する。
type mockExecutor struct {
	execCalled bool
	query      string
	args       []interface{}
	result     sql.Result
	err        error
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.execCalled = true
	m.query = query
	m.args = args
	return m.result, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// logField はJSONログ出力から指定フィールドの値を探す。
func logField(t *testing.T, buf *bytes.Buffer, key string) (interface{}, bool) {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if v, ok := entry[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func TestNewCleanupJob_DefaultRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockExecutor{result: &fakeResult{}}, newTestLogger(&buf))

	if job == nil {
		t.Fatal("NewCleanupJob は nil を返してはならない")
	}
	if job.RetentionDays != 180 {
		t.Errorf("RetentionDays = %d, want 180", job.RetentionDays)
	}
}

// TestCleanupJob_Run_DeletesOldUsageEvents は保持期間超過イベントの削除クエリを検証する。
func TestCleanupJob_Run_DeletesOldUsageEvents(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 5}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
	if !mock.execCalled {
		t.Fatal("ExecContext が呼び出されなかった")
	}
	if !strings.Contains(mock.query, "DELETE FROM usage_events") {
		t.Errorf("クエリに 'DELETE FROM usage_events' が含まれていない: %s", mock.query)
	}
	if !strings.Contains(mock.query, "occurred_at") {
		t.Errorf("クエリに 'occurred_at' 条件が含まれていない: %s", mock.query)
	}
}

// TestCleanupJob_Run_IntervalArgument は保持日数がinterval引数として渡されることを検証する。
func TestCleanupJob_Run_IntervalArgument(t *testing.T) {
	tests := []struct {
		name          string
		retentionDays int
		wantArg       string
	}{
		{"Default", 180, "180 days"},
		{"Custom", 90, "90 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mock := &mockExecutor{result: &fakeResult{}}
			job := NewCleanupJob(mock, newTestLogger(&buf))
			job.RetentionDays = tt.retentionDays

			_ = job.Run(context.Background())

			if len(mock.args) < 1 {
				t.Fatal("ExecContext に引数が渡されなかった")
			}
			argStr, ok := mock.args[0].(string)
			if !ok {
				t.Fatalf("第1引数が string ではない: %T", mock.args[0])
			}
			if argStr != tt.wantArg {
				t.Errorf("interval引数 = %q, want %q", argStr, tt.wantArg)
			}
		})
	}
}

// TestCleanupJob_Run_LogsOutcome は削除件数・保持日数・処理時間のログ出力を検証する。
// 削除対象0件でもログは出力される。
func TestCleanupJob_Run_LogsOutcome(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
	}{
		{"DeletedRows", 42},
		{"ZeroRows", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mock := &mockExecutor{result: &fakeResult{rowsAffected: tt.rowsAffected}}
			job := NewCleanupJob(mock, newTestLogger(&buf))

			_ = job.Run(context.Background())

			if count, ok := logField(t, &buf, "deleted_count"); !ok || count != float64(tt.rowsAffected) {
				t.Errorf("ログに deleted_count=%d が記録されていない。ログ出力: %s", tt.rowsAffected, buf.String())
			}
			if days, ok := logField(t, &buf, "retention_days"); !ok || days != float64(180) {
				t.Errorf("ログに retention_days=180 が記録されていない。ログ出力: %s", buf.String())
			}
			if _, ok := logField(t, &buf, "duration_ms"); !ok {
				t.Errorf("ログに duration_ms が記録されていない。ログ出力: %s", buf.String())
			}
		})
	}
}

func TestCleanupJob_Run_ReturnsAndLogsErrorOnDBFailure(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{err: sql.ErrConnDone}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("DBエラー時に Run() は nil でないエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "sql: connection is already closed") {
		t.Errorf("エラーメッセージが期待と異なる: %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("エラー時にERRORレベルのログが記録されていない。ログ出力: %s", buf.String())
	}
}

// TestCleanupJob_Run_Idempotent は削除対象がない状態での連続実行がエラーにならないことを検証する。
func TestCleanupJob_Run_Idempotent(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 0}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("%d回目の Run() がエラーを返した: %v", i+1, err)
		}
	}
}

// TestCleanupJob_Run_PropagatesContext はコンテキストがDB層へ伝播することを検証する。
// キャンセルの判定自体はExecContextを実装するDBドライバに委ねる。
func TestCleanupJob_Run_PropagatesContext(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = job.Run(ctx)

	if !mock.execCalled {
		t.Fatal("キャンセル済みコンテキストでもExecContextは呼び出されるべき")
	}
}
