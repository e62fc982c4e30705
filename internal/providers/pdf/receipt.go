package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData is pre-formatted; the renderer does no arithmetic.
type ReceiptData struct {
	BusinessName string
	OrderNumber  string
	Status       string
	DateCreated  string
	ClosedAt     string
	Employee     string
	ClientID     string

	Items []ReceiptItem

	Subtotal     string
	Discount     string
	BenefitLabel string
	Total        string
	PointsUsed   string
	PointsEarned string
}

type ReceiptItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

func (p *MarotoProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, receipt.BusinessName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Receipt", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Order #"+receipt.OrderNumber, props.Text{Top: 0, Style: fontstyle.Bold}),
			text.New("Opened: "+receipt.DateCreated, props.Text{Top: 5}),
			text.New("Closed: "+valueOr(receipt.ClosedAt, "-"), props.Text{Top: 10}),
			text.New("Status: "+receipt.Status, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Served by "+receipt.Employee, props.Text{Align: align.Right}),
			text.New("Client "+valueOr(receipt.ClientID, "-"), props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range receipt.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, receipt.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	if receipt.BenefitLabel != "" {
		m.AddRow(8,
			col.New(4),
			text.NewCol(6, receipt.BenefitLabel, props.Text{Size: 9}),
			text.NewCol(2, "-"+receipt.Discount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.Total, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	if receipt.ClientID != "" {
		m.AddRow(15,
			text.NewCol(12, fmt.Sprintf("Points used: %s    Points earned: %s", receipt.PointsUsed, receipt.PointsEarned), props.Text{
				Size: 9,
				Top:  5,
			}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
