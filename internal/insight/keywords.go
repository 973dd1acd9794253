// Package insight は論文テキストからの市場シグナル抽出を提供する。
// キーワード抽出とマーケットタイミングスコアの算出を行う。
package insight

import (
	"regexp"
	"strings"
)

// maxKeywords は1テキストから抽出するキーワードの上限。
const maxKeywords = 15

// keywordPatterns は技術・ビジネス用語のパターン。
// 大文字小文字を区別せずにマッチする。
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(AI|ML|LLM|GPT|transformer|neural network)\b`),
	regexp.MustCompile(`(?i)\b(blockchain|crypto|web3|DeFi)\b`),
	regexp.MustCompile(`(?i)\b(quantum|qubit)\b`),
	regexp.MustCompile(`(?i)\b(CRISPR|gene therapy|biotech)\b`),
	regexp.MustCompile(`(?i)\b(API|SDK|SaaS|PaaS)\b`),
	regexp.MustCompile(`(?i)\b(revenue|ARR|MRR|growth|churn)\b`),
	regexp.MustCompile(`(?i)\b(Series [A-D]|seed|IPO|acquisition)\b`),
}

// ExtractKeywords はテキストから技術・ビジネスキーワードを抽出する。
// 4文字以下は大文字に、それ以外はタイトルケースに正規化し、
// 重複を除いた最大15件を出現順に返す。
func ExtractKeywords(text string) []string {
	seen := make(map[string]struct{})
	var keywords []string

	for _, pattern := range keywordPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			normalized := normalizeKeyword(match[1])
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			keywords = append(keywords, normalized)
			if len(keywords) >= maxKeywords {
				return keywords
			}
		}
	}
	return keywords
}

// normalizeKeyword は短い略語を大文字化し、語句をタイトルケースにする。
func normalizeKeyword(raw string) string {
	if len(raw) <= 4 {
		return strings.ToUpper(raw)
	}
	words := strings.Fields(strings.ToLower(raw))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
