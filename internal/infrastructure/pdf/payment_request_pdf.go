// Package pdf renders the payment-request document attached to the manual
// billing email.
//
// A4 layout:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: landlord name          │  Period + reference        │
//	│  ───────────────────────────────────────────────────────── │
//	│  RENTER: name, property address                              │
//	│  ───────────────────────────────────────────────────────── │
//	│  TABLE: Description | Amount | VAT % | Gross                 │
//	│  ───────────────────────────────────────────────────────── │
//	│  TOTAL DUE                                                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 16, Green: 85, Blue: 60}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ billing.PaymentRequestPDFGenerator = (*PaymentRequestGenerator)(nil)

// PaymentRequestGenerator renders payment requests with Maroto v2.
type PaymentRequestGenerator struct{}

// NewPaymentRequestGenerator builds the generator.
func NewPaymentRequestGenerator() *PaymentRequestGenerator { return &PaymentRequestGenerator{} }

// Generate renders the document and returns its bytes.
func (g *PaymentRequestGenerator) Generate(_ context.Context, req *billing.PaymentRequest) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Payment request", true).
		WithAuthor(req.TenantName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(renterRow(req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableLineRows(req.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(req.Total))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: landlord (left), billing period and reference (right).
func headerRow(req *billing.PaymentRequest) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(req.TenantName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Payment request", props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(req.Period.Format("January 2006"), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 1,
			}),
			text.New("Reference: "+req.Reference, props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func renterRow(req *billing.PaymentRequest) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New(req.RenterName, props.Text{Style: fontstyle.Bold, Size: 10, Top: 1}),
			text.New(req.PropertyAddress, props.Text{Size: 9, Top: 6, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	header := props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Align: align.Right}
	return row.New(8).Add(
		col.New(6).Add(text.New("Description", header)),
		col.New(2).Add(text.New("Amount", headerRight)),
		col.New(2).Add(text.New("VAT %", headerRight)),
		col.New(2).Add(text.New("Total", headerRight)),
	)
}

func tableLineRows(lines []entity.FinanceItem) []core.Row {
	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	rows := make([]core.Row, 0, len(lines))
	for _, li := range lines {
		gross := li.Amount.Mul(decimal.NewFromInt(1).Add(li.TaxPercentage.Div(decimal.NewFromInt(100))))
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(li.Description, cell)),
			col.New(2).Add(text.New(li.Amount.StringFixed(2), cellRight)),
			col.New(2).Add(text.New(li.TaxPercentage.StringFixed(0), cellRight)),
			col.New(2).Add(text.New(gross.StringFixed(2), cellRight)),
		))
	}
	return rows
}

func totalRow(total decimal.Decimal) core.Row {
	return row.New(10).Add(
		col.New(8),
		col.New(2).Add(text.New("Total due", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2})),
		col.New(2).Add(text.New(total.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2, Color: colorPrimary})),
	)
}
