package report

import (
	"fmt"
	"strings"

	"github.com/prashantbhardwaj30/architek-app/internal/insight"
	"github.com/prashantbhardwaj30/architek-app/internal/model"
	"github.com/prashantbhardwaj30/architek-app/internal/security"
)

// defaultRole は未知のロールに適用する分析ロール。
const defaultRole = "Venture Capital Partner"

// roleLenses は分析ロールごとの視点。
var roleLenses = map[string]string{
	"Venture Capital Partner": "Investment thesis and fund deployment",
	"Chief Technology Officer": "Technical architecture and build-vs-buy",
	"Staff Software Engineer":  "Implementation and code architecture",
	"Brand & Content Lead":     "Go-to-market and content strategy",
	"CEO/Founder":              "Strategic positioning and fundraising",
	"Product Manager":          "Product strategy and roadmap",
	"Investment Banker":        "M&A and deal structuring",
}

// buildPrompt は分析リクエストのプロンプトを構築する。
// ロール視点、対象セクターの市場シグナル、Tierに応じた分析深度の指示を含む。
func buildPrompt(role, industry string, source *security.Source, tier model.Tier) string {
	lens, ok := roleLenses[role]
	if !ok {
		role = defaultRole
		lens = roleLenses[defaultRole]
	}

	var b strings.Builder
	b.WriteString("# STRATEGIC ANALYSIS REQUEST\n")
	fmt.Fprintf(&b, "**ANALYST ROLE**: %s\n", role)
	fmt.Fprintf(&b, "**ANALYSIS LENS**: %s\n", lens)
	fmt.Fprintf(&b, "**TARGET SECTOR**: %s\n", industry)

	if sector, ok := insight.TrendingSectors[industry]; ok {
		fmt.Fprintf(&b, "\n**SECTOR INTELLIGENCE**: %s\n", industry)
		fmt.Fprintf(&b, "- Market Heat Index: %d/100\n", sector.Heat)
		fmt.Fprintf(&b, "- Growth Velocity: %s YoY\n", sector.Velocity)
		fmt.Fprintf(&b, "- Stage: %s\n", sector.Stage)
	}

	fmt.Fprintf(&b, "\n## SOURCE MATERIAL\nResearch paper (%s): %s\n", source.Platform, source.PDFURL)

	b.WriteString("\n## REQUIRED ANALYSIS\n")
	b.WriteString("Generate a comprehensive, actionable intelligence report in Markdown.\n")
	switch tier {
	case model.TierEnterprise:
		b.WriteString("Include full analysis with all sections, battlecards and deal positioning.\n")
	case model.TierPro:
		b.WriteString("Include extended analysis with competitive battlecards.\n")
	default:
		b.WriteString("Include a concise analysis limited to the core sections.\n")
	}
	b.WriteString("\n## FORMATTING REQUIREMENTS\n")
	b.WriteString("1. Use markdown tables for comparative data\n")
	b.WriteString("2. Keep insights actionable\n")
	b.WriteString("3. Bold key numbers and decisions\n")

	return b.String()
}
