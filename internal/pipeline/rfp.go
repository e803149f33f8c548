package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/shopspring/decimal"
)

type RFPLine struct {
	ItemName      string
	Qty           *float64
	Unit          string
	Specification string
	TargetPrice   *decimal.Decimal
}

type RFPDraft struct {
	Supplier string
	Subject  string
	Body     string
}

// ComposeRFP renders a request-for-proposal message for one supplier. The
// output is a plain-text draft; sending it is left to whoever reviews it.
func ComposeRFP(supplier string, lines []RFPLine, contactName string) RFPDraft {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s team,\n\n", supplier)
	b.WriteString("We are preparing a hotel fit-out procurement round and would appreciate\nyour best quotation for the following items:\n\n")

	for i, line := range lines {
		fmt.Fprintf(&b, "  %d. %s", i+1, line.ItemName)
		if line.Qty != nil {
			fmt.Fprintf(&b, " - %g", *line.Qty)
			if line.Unit != "" {
				fmt.Fprintf(&b, " %s", line.Unit)
			}
		} else if line.Unit != "" {
			fmt.Fprintf(&b, " - qty TBC (%s)", line.Unit)
		} else {
			b.WriteString(" - qty TBC")
		}
		if line.Specification != "" {
			fmt.Fprintf(&b, "\n     spec: %s", line.Specification)
		}
		if line.TargetPrice != nil {
			fmt.Fprintf(&b, "\n     target price: %s", line.TargetPrice.String())
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPlease include unit prices, currency, lead times and the validity of\nyour offer. Product photos and specification sheets are welcome.\n\n")
	fmt.Fprintf(&b, "Kind regards,\n%s\n", contactName)

	return RFPDraft{
		Supplier: supplier,
		Subject:  fmt.Sprintf("Request for proposal - %d items", len(lines)),
		Body:     b.String(),
	}
}

// WriteRFPDraft saves the draft as an .eml file ready to be opened in a
// mail client. Nothing is sent.
func WriteRFPDraft(draft RFPDraft, fromName, fromAddr, toAddr, outputPath string) error {
	part, err := enmime.Builder().
		From(fromName, fromAddr).
		To(draft.Supplier, toAddr).
		Subject(draft.Subject).
		Text([]byte(draft.Body)).
		Build()
	if err != nil {
		return fmt.Errorf("build rfp draft: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return part.Encode(f)
}
