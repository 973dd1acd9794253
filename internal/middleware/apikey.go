// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// apiKeyHeader はAPIキーを渡すリクエストヘッダー名。
const apiKeyHeader = "X-API-Key"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accountContextKey はリクエストコンテキストにアカウントを格納するためのキー。
var accountContextKey = contextKey("account")

// AccountResolver はAPIキーからのアカウント解決に必要なインターフェース。
// account.Serviceの部分集合として定義する。
type AccountResolver interface {
	ResolveOrCreate(ctx context.Context, rawCredential string) (*model.Account, error)
}

// NewAPIKeyMiddleware はX-API-Keyヘッダーからアカウントを解決するミドルウェアを返す。
// 解決済みアカウントをリクエストコンテキストに注入する。
// ヘッダーが無い、または空のリクエストには401 Unauthorizedを返す。
// ストア障害は401に化けず503として返す。
func NewAPIKeyMiddleware(resolver AccountResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ヘッダーからAPIキーを取得
			rawKey := r.Header.Get(apiKeyHeader)
			if rawKey == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialError("APIキーヘッダーがありません"))
				return
			}

			// 2. アカウントの解決（未登録ならfreeティアで新規作成）
			account, err := resolver.ResolveOrCreate(r.Context(), rawKey)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
					return
				}
				slog.Error("failed to resolve account",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
				return
			}

			// 3. 解決済みアカウントをコンテキストに注入
			ctx := context.WithValue(r.Context(), accountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext はリクエストコンテキストからアカウントを取得する。
// APIキーミドルウェアを通過したリクエストでのみ有効。
func AccountFromContext(ctx context.Context) (*model.Account, error) {
	account, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok || account == nil {
		return nil, fmt.Errorf("account not found in context")
	}
	return account, nil
}

// AccountIDFromContext はリクエストコンテキストからアカウントIDを取得する。
func AccountIDFromContext(ctx context.Context) (string, error) {
	account, err := AccountFromContext(ctx)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// ContextWithAccount はコンテキストにアカウントを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}
