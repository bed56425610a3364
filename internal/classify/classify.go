// Package classify applies thresholds to metric records and performs the drop side effect.
package classify

import (
	"math"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/report"
)

// Decision is the classifier outcome. Keep and Drop are never both true;
// both false means the record could not be judged.
type Decision struct {
	Keep      bool
	Drop      bool
	Primary   float64
	Secondary float64
}

// Verdict collapses the decision into one value
func (d Decision) Verdict() contracts.Verdict {
	switch {
	case d.Keep:
		return contracts.VerdictKeep
	case d.Drop:
		return contracts.VerdictDrop
	default:
		return contracts.VerdictNeither
	}
}

// Classify parses the primary percent and secondary ratio and compares them
// with th. An unparseable metric cannot cause a drop on its own and blocks keep.
// ⭐ SSOT: 유지/제거 판정 규칙은 여기서만
func Classify(rec contracts.MetricRecord, th contracts.Thresholds) Decision {
	p := report.ParsePercent(rec.PrimaryMetricText)
	s := report.ParseNumber(rec.SecondaryRatioText)

	pValid := isFinite(p)
	sValid := isFinite(s)

	return Decision{
		Keep:      pValid && sValid && p >= th.MinPrimaryPercent && s >= th.MinSecondaryRatio,
		Drop:      (pValid && p < th.MinPrimaryPercent) || (sValid && s < th.MinSecondaryRatio),
		Primary:   p,
		Secondary: s,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
