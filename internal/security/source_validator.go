package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// SourceValidatorService は論文URLの検証機能のインターフェースを定義する。
// レポート生成リクエストの受付時に使用される。
type SourceValidatorService interface {
	// Validate は論文URLを検証し、取得すべきPDFのURLと
	// プラットフォーム名を返す。
	// サポート対象プラットフォーム（arXiv, bioRxiv, medRxiv）のURL、
	// PDFへの直接URL、またはContent-TypeがPDFであるURLを受け付ける。
	// それ以外のURLにはエラーを返す。
	Validate(ctx context.Context, rawURL string) (*Source, error)
}

// Source は検証済みの論文ソースを表す。
type Source struct {
	PDFURL   string // 取得対象のPDF URL
	Platform string // プラットフォーム名 (arXiv, bioRxiv, medRxiv, Direct PDF, PDF URL)
}

// platform はサポート対象の論文プラットフォームの定義。
type platform struct {
	domain    string
	name      string
	idPattern *regexp.Regexp
}

// supportedPlatforms はサポート対象プラットフォームと論文IDの抽出パターン。
// スライスで保持し、検証順序を固定する。
var supportedPlatforms = []platform{
	{domain: "arxiv.org", name: "arXiv", idPattern: regexp.MustCompile(`(\d{4}\.\d{4,5})`)},
	{domain: "biorxiv.org", name: "bioRxiv", idPattern: regexp.MustCompile(`/(\d+\.\d+\.\d+\.\d+)`)},
	{domain: "medrxiv.org", name: "medRxiv", idPattern: regexp.MustCompile(`/(\d+\.\d+\.\d+\.\d+)`)},
}

// headTimeout は未知のURLのContent-Type確認に使うタイムアウト。
const headTimeout = 5 * time.Second

// sourceValidator はSourceValidatorServiceの実装。
// 未知のURLのContent-Type確認にはSSRF防止付きクライアントを使用する。
type sourceValidator struct {
	guard  SSRFGuardService
	client *http.Client
}

// NewSourceValidator はSourceValidatorServiceの新しいインスタンスを生成する。
func NewSourceValidator(guard SSRFGuardService) *sourceValidator {
	return &sourceValidator{
		guard:  guard,
		client: guard.NewSafeClient(headTimeout),
	}
}

// Validate は論文URLを検証し、取得すべきPDFのURLとプラットフォーム名を返す。
func (v *sourceValidator) Validate(ctx context.Context, rawURL string) (*Source, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("no URL provided")
	}

	// サポート対象プラットフォームの照合
	for _, p := range supportedPlatforms {
		if !strings.Contains(rawURL, p.domain) {
			continue
		}
		match := p.idPattern.FindStringSubmatch(rawURL)
		if match == nil {
			continue
		}
		paperID := match[1]
		pdfURL := rawURL
		if p.domain == "arxiv.org" {
			pdfURL = fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", paperID)
		} else {
			pdfURL = strings.ReplaceAll(rawURL, "/abs/", "/pdf/")
		}
		return &Source{PDFURL: pdfURL, Platform: p.name}, nil
	}

	// PDFへの直接URL
	if strings.HasSuffix(rawURL, ".pdf") {
		return &Source{PDFURL: rawURL, Platform: "Direct PDF"}, nil
	}

	// 未知のURL: Content-Typeを確認する。
	// リクエスト送信前に静的なSSRF検証を行う。
	if err := v.guard.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("unsafe URL: %w", err)
	}
	if v.headIsPDF(ctx, rawURL) {
		return &Source{PDFURL: rawURL, Platform: "PDF URL"}, nil
	}

	return nil, fmt.Errorf("unsupported URL format: %s", rawURL)
}

// headIsPDF はHEADリクエストでContent-TypeがPDFかを確認する。
// リクエスト失敗は検証失敗として扱う。
func (v *sourceValidator) headIsPDF(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	return strings.Contains(strings.ToLower(contentType), "pdf")
}
