package insight

import "fmt"

// Recommendation はディールフロー集計から投資家向けの提言文を生成する。
// trendsまたはindustriesが空の場合は履歴の蓄積を促すメッセージを返す。
func Recommendation(topKeyword, topIndustry string, avgTiming float64) string {
	if topKeyword == "" || topIndustry == "" {
		return "Build more report history to generate recommendations."
	}

	var timingMsg string
	switch {
	case avgTiming > 70:
		timingMsg = "Market timing is favorable — consider accelerating deal flow."
	case avgTiming > 50:
		timingMsg = "Market timing is neutral — maintain current pace."
	default:
		timingMsg = "Market timing suggests caution — focus on quality over quantity."
	}

	return fmt.Sprintf("Your research shows strong interest in **%s** within **%s**. %s", topKeyword, topIndustry, timingMsg)
}
