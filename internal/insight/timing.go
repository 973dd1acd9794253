package insight

import "strings"

// Sector はトラッキング中のセクターの市場シグナル。
type Sector struct {
	Heat     int    // 市場ヒート指数 (0-100)
	Velocity string // 前年比の成長率
	Stage    string // 市場の成熟段階
}

// TrendingSectors は注目セクターとその市場シグナル。
var TrendingSectors = map[string]Sector{
	"AI Agents":              {Heat: 95, Velocity: "+42%", Stage: "Early Growth"},
	"Climate Tech":           {Heat: 82, Velocity: "+28%", Stage: "Expansion"},
	"Space Tech":             {Heat: 71, Velocity: "+15%", Stage: "Maturing"},
	"Longevity Biotech":      {Heat: 88, Velocity: "+35%", Stage: "Emerging"},
	"Quantum Computing":      {Heat: 65, Velocity: "+12%", Stage: "R&D Heavy"},
	"Neurotech":              {Heat: 74, Velocity: "+22%", Stage: "Early"},
	"Defense Tech":           {Heat: 79, Velocity: "+31%", Stage: "Growth"},
	"Fintech Infrastructure": {Heat: 68, Velocity: "+8%", Stage: "Mature"},
}

// スコア算出に使うシグナル語。
var (
	earlySignals  = []string{"prototype", "early results", "preliminary", "novel approach", "first"}
	matureSignals = []string{"established", "proven", "widely adopted", "industry standard"}
)

// timingScanLimit はシグナル検出で走査するテキストの最大バイト数。
const timingScanLimit = 10000

// TimingScore はマーケットタイミングスコア(0-100)を算出する。
// 基準値50に対し、セクターのヒート指数、技術成熟度シグナル、
// 競合密度シグナルで加減算する。
func TimingScore(text, industry string) int {
	score := 50

	if sector, ok := TrendingSectors[industry]; ok {
		score += floorHalf(sector.Heat - 70)
	}

	scanned := text
	if len(scanned) > timingScanLimit {
		scanned = scanned[:timingScanLimit]
	}
	scanned = strings.ToLower(scanned)

	earlyCount := countSignals(scanned, earlySignals)
	matureCount := countSignals(scanned, matureSignals)

	// 初期段階はタイミング機会が大きく、成熟市場は差別化が難しい
	if earlyCount > matureCount {
		score += 15
	} else if matureCount > earlyCount {
		score -= 10
	}

	if strings.Contains(scanned, "competitor") || strings.Contains(scanned, "versus") {
		score -= 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func countSignals(text string, signals []string) int {
	count := 0
	for _, s := range signals {
		if strings.Contains(text, s) {
			count++
		}
	}
	return count
}

// floorHalf は負数でも負の無限大方向に丸める2分の1。
func floorHalf(n int) int {
	if n < 0 && n%2 != 0 {
		return n/2 - 1
	}
	return n / 2
}
