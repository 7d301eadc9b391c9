package services

import (
	"context"
	"fmt"
	"sync"

	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/resend/resend-go/v3"
)

var (
	resendCli  *resend.Client
	resendOnce = sync.Once{}
)

// NotifyService sends staff notifications about settled payments. Delivery is
// best effort; a failed email never affects the ledger.
type NotifyService struct {
	logger *gecho.Logger
	cfg    *structs.Config
	client *resend.Client
}

func NewNotifyService(logger *gecho.Logger, cfg *structs.Config) *NotifyService {
	return &NotifyService{
		logger: logger,
		cfg:    cfg,
		client: getResendClient(cfg.Notify.ResendAPIKey),
	}
}

func getResendClient(apiKey string) *resend.Client {
	resendOnce.Do(func() {
		resendCli = resend.NewClient(apiKey)
	})
	return resendCli
}

func (ns *NotifyService) sendEmail(to []string, subject string, body string) error {
	params := &resend.SendEmailRequest{
		From:    ns.cfg.Notify.FromEmail,
		To:      to,
		Html:    body,
		Subject: subject,
	}

	_, err := ns.client.Emails.Send(params)
	if err != nil {
		ns.logger.Error("Failed to send email", gecho.Field("error", err), gecho.Field("to", to))
		return err
	}

	return nil
}

// PaymentReceived tells staff a payment settled, with the order's remaining
// balance so they know whether the table is done.
func (ns *NotifyService) PaymentReceived(ctx context.Context, order *tables.Order, amountCents int64, mode tables.PaymentMode) error {
	if !ns.cfg.Notify.Enabled {
		return nil
	}

	tableLabel := "Asporto"
	if order.TableId != nil {
		tableLabel = fmt.Sprintf("Tavolo %s", *order.TableId)
	}

	modeLabel := "Conto intero"
	if mode == tables.PaymentModeSplit {
		modeLabel = "Quota alla romana"
	}

	emailBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head><meta charset="UTF-8"></head>
		<body style="font-family: Arial, sans-serif; color: #333;">
			<h2>Pagamento ricevuto</h2>
			<p><strong>%s</strong> | Ordine <strong>%s</strong></p>
			<table cellpadding="6">
				<tr><td>Tipo</td><td><strong>%s</strong></td></tr>
				<tr><td>Importo</td><td><strong>€%.2f</strong></td></tr>
				<tr><td>Pagato</td><td>€%.2f di €%.2f</td></tr>
				<tr><td>Residuo</td><td><strong>€%.2f</strong></td></tr>
			</table>
		</body>
		</html>
	`, tableLabel, order.OrderNumber, modeLabel,
		float64(amountCents)/100,
		float64(order.PaidCents)/100, float64(order.TotalCents)/100,
		float64(order.ResidualCents())/100)

	subject := fmt.Sprintf("Pagamento €%.2f - %s (%s)", float64(amountCents)/100, tableLabel, order.OrderNumber)

	return ns.sendEmail([]string{ns.cfg.Notify.StaffEmail}, subject, emailBody)
}
