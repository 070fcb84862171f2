package audit

import (
	"fmt"
	"strings"
)

// Format renders the findings as a human-readable report.
func (f *Findings) Format() string {
	var b strings.Builder

	b.WriteString("TASE.2 Security Analysis\n")
	b.WriteString("========================\n\n")
	fmt.Fprintf(&b, "Generated:        %s\n", f.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Domains:          %d\n", f.DomainCount)
	fmt.Fprintf(&b, "Readable points:  %d\n", f.ReadablePoints)
	fmt.Fprintf(&b, "Control points:   %d\n", f.ControlPoints)
	fmt.Fprintf(&b, "Transfer sets:    %d\n", f.TransferSets)

	if f.AccessControl {
		if f.BilateralTableID != "" {
			fmt.Fprintf(&b, "Access control:   bilateral table %q\n", f.BilateralTableID)
		} else {
			b.WriteString("Access control:   bilateral table present\n")
		}
	} else {
		b.WriteString("Access control:   none detected\n")
	}

	b.WriteString("\nConformance blocks\n------------------\n")
	for _, block := range f.ConformanceBlocks {
		fmt.Fprintf(&b, "  - %s\n", block)
	}

	b.WriteString("\nConcerns\n--------\n")
	for _, c := range f.Concerns {
		fmt.Fprintf(&b, "  ! %s\n", c)
	}

	b.WriteString("\nRecommendations\n---------------\n")
	for _, r := range f.Recommendations {
		fmt.Fprintf(&b, "  * %s\n", r)
	}

	return b.String()
}
