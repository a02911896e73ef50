// Package pdf renders enrollment receipts with maroto.
package pdf

import (
	"context"
	"errors"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

var ErrInvalidReceipt = errors.New("invalid_receipt")

// Renderer produces printable documents.
type Renderer interface {
	Receipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

// ReceiptData holds preformatted receipt values. Amounts are display strings.
type ReceiptData struct {
	OrgName    string
	OrgAddress string
	OrgEmail   string

	ReceiptNumber string
	DatePaid      string
	ServicePeriod string

	PayerName  string
	PayerEmail string
	MemberName string

	Items []ReceiptItem
	Total string
}

type ReceiptItem struct {
	Description string
	Amount      string
}

type marotoRenderer struct{}

func New() Renderer {
	return &marotoRenderer{}
}

func (r *marotoRenderer) Receipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	if strings.TrimSpace(data.ReceiptNumber) == "" || len(data.Items) == 0 {
		return nil, ErrInvalidReceipt
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Side {current} av {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Kvittan", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.OrgName, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Kvittan nr: "+data.ReceiptNumber, props.Text{Top: 0}),
			text.New("Goldið: "+data.DatePaid, props.Text{Top: 4}),
			text.New("Tíðarskeið: "+data.ServicePeriod, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New(data.OrgAddress, props.Text{Align: align.Right}),
			text.New(data.OrgEmail, props.Text{Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Goldari", props.Text{Style: fontstyle.Bold}),
			text.New(data.PayerName, props.Text{Top: 5}),
			text.New(data.PayerEmail, props.Text{Top: 9}),
		),
		col.New(6).Add(
			text.New("Limur", props.Text{Style: fontstyle.Bold}),
			text.New(data.MemberName, props.Text{Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(9, "Lýsing", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Upphædd", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(9, item.Description, props.Text{Size: 9}),
			text.NewCol(3, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Tilsamans", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(3, data.Total, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
