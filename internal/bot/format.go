package bot

import (
	"fmt"
	"strings"

	"grimaldi/internal/analysis"
	"grimaldi/internal/composition"
	"grimaldi/internal/i18n"
)

// formatResult renders an analysis as a Telegram message
func formatResult(out *analysis.Outcome, lang i18n.Language) string {
	r := out.Result
	c := r.Composition
	interp := composition.InterpretResults(r)

	var sb strings.Builder
	sb.WriteString(i18n.Tf("result_header", lang, out.Record.CreatedAt.Format("02/01/2006 15:04")))
	sb.WriteString("\n\n")
	sb.WriteString(i18n.Tf("result_composition", lang,
		c.BMI, interp.BMI,
		c.FatPercent, c.FatMassKg, interp.FatPercent,
		c.LeanMassKg, interp.LeanMass,
		c.BMR,
		c.BodyWaterL, c.BodyWaterPercent,
	))

	sb.WriteString("\n\n")
	sb.WriteString(i18n.T("result_measurements", lang))
	sb.WriteString(":\n")
	for _, k := range composition.Kinds {
		fmt.Fprintf(&sb, "• %s: %.1f\n", k.Label(), r.Measurements.Get(k))
	}

	sb.WriteString("\n")
	sb.WriteString(i18n.T("result_indices", lang))
	sb.WriteString(":\n")
	for _, name := range composition.IndexNames {
		ix := r.Indices.Get(name)
		fmt.Fprintf(&sb, "%s %s: %.2f (%s)\n", bandIcon(ix.Band), name.Label(), ix.Value, ix.Band)
	}

	sb.WriteString("\n")
	sb.WriteString(i18n.Tf("result_score", lang, r.Score, interp.CompositeScore))
	return sb.String()
}

func bandIcon(b composition.Band) string {
	switch b {
	case composition.BandLowRisk, composition.BandAdequate:
		return "🟢"
	case composition.BandAttention:
		return "🟡"
	case composition.BandModerate:
		return "🟠"
	default:
		return "🔴"
	}
}
