package notification

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	appproc "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/infrastructure/config"
	"go.uber.org/zap"
)

const purchaseOrderBody = `Dear {{.SupplierName}},

Please find below our purchase order {{.OrderNumber}}.
{{if .DeliveryAddress}}
Deliver to:
{{.DeliveryAddress}}
{{end}}
{{range $i, $l := .Lines}}{{inc $i}}. {{$l.Description}}
   {{qty $l.Quantity}}{{if $l.Unit}} {{$l.Unit}}{{end}} x {{money $l.UnitPrice}} = {{money $l.TotalPrice}}
{{end}}
Subtotal:    {{money .TotalAmount}}
Tax:         {{money .TaxAmount}}
Shipping:    {{money .ShippingCost}}
Grand total: {{money .GrandTotal}}

Please confirm receipt of this order quoting {{.OrderNumber}}.
`

// EmailNotifier renders purchase orders into supplier e-mails
type EmailNotifier struct {
	mailer  Mailer
	from    string
	enabled bool
	tmpl    *template.Template
	logger  *zap.Logger
}

// NewEmailNotifier creates a notifier from the notification config section
func NewEmailNotifier(cfg config.NotificationConfig, mailer Mailer, logger *zap.Logger) (*EmailNotifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	format, err := newAmountFormatter(cfg.Locale, cfg.Currency)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("purchase_order").Funcs(template.FuncMap{
		"money": format.Money,
		"qty":   format.Quantity,
		"inc":   func(i int) int { return i + 1 },
	}).Parse(purchaseOrderBody)
	if err != nil {
		return nil, fmt.Errorf("failed to parse purchase order template: %w", err)
	}

	return &EmailNotifier{
		mailer:  mailer,
		from:    cfg.FromAddress,
		enabled: cfg.Enabled,
		tmpl:    tmpl,
		logger:  logger.Named("notification"),
	}, nil
}

// NotifyPurchaseOrderSent e-mails the order to msg.SupplierEmail
func (n *EmailNotifier) NotifyPurchaseOrderSent(ctx context.Context, msg appproc.PurchaseOrderMessage) error {
	if !n.enabled {
		n.logger.Debug("Supplier notifications disabled, skipping",
			zap.String("order_number", msg.OrderNumber))
		return nil
	}
	if msg.SupplierEmail == "" {
		return fmt.Errorf("purchase order %s has no supplier e-mail", msg.OrderNumber)
	}

	var body strings.Builder
	if err := n.tmpl.Execute(&body, msg); err != nil {
		return fmt.Errorf("failed to render purchase order %s: %w", msg.OrderNumber, err)
	}

	return n.mailer.Send(ctx, Message{
		From:     n.from,
		To:       msg.SupplierEmail,
		Subject:  fmt.Sprintf("Purchase Order %s", msg.OrderNumber),
		TextBody: body.String(),
		Headers: map[string]string{
			"X-Order-Number": msg.OrderNumber,
			"X-Order-ID":     msg.OrderID.String(),
			"X-Tenant-ID":    msg.TenantID.String(),
		},
	})
}

var _ appproc.SupplierNotifier = (*EmailNotifier)(nil)
