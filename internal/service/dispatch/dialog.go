package dispatch

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/service/orders"
)

const (
	// OrdersRedirect: куда перейти после успешной email-отправки.
	OrdersRedirect = "/orders"
	// MessageWhatsAppOpened: локальное подтверждение открытия WhatsApp.
	MessageWhatsAppOpened = "WhatsApp opened"
)

// Dialog: диалог выбора канала. Показывается только после успешного сохранения.
type Dialog struct {
	OrderID  string
	Supplier domain.SupplierProfile
	Channel  domain.DispatchChannel
}

// NewDialog открывает диалог для сохранённого заказа; канал по умолчанию email.
func NewDialog(orderID string, supplier domain.SupplierProfile) (Dialog, error) {
	if orderID == "" {
		return Dialog{}, domain.ErrDispatchNotOpen
	}
	return Dialog{OrderID: orderID, Supplier: supplier, Channel: domain.ChannelEmail}, nil
}

// Available сообщает, есть ли у поставщика контакт для канала.
func (d Dialog) Available(channel domain.DispatchChannel) bool {
	switch channel {
	case domain.ChannelEmail:
		return d.Supplier.HasEmail()
	case domain.ChannelWhatsApp:
		return d.Supplier.HasPhone()
	default:
		return false
	}
}

// Channels возвращает доступность обоих каналов.
func (d Dialog) Channels() map[domain.DispatchChannel]bool {
	return map[domain.DispatchChannel]bool{
		domain.ChannelEmail:    d.Available(domain.ChannelEmail),
		domain.ChannelWhatsApp: d.Available(domain.ChannelWhatsApp),
	}
}

// Select выбирает канал; отключённый канал не выбирается.
func (d *Dialog) Select(channel domain.DispatchChannel) error {
	if !channel.Valid() {
		return domain.ErrUnknownChannel
	}
	if !d.Available(channel) {
		return domain.ErrChannelUnavailable
	}
	d.Channel = channel
	return nil
}

// Outcome: результат отправки, готовый для показа пользователю.
type Outcome struct {
	Success bool
	Channel domain.DispatchChannel
	OrderID string
	// Finalized: черновик завершён и должен быть закрыт (только email).
	Finalized bool
	Redirect  string
	// Link: wa.me ссылка для открытия в новом окне.
	Link    string
	Message string
	Err     error
}

// Sender выполняет серверную email-отправку.
type Sender interface {
	Send(ctx context.Context, auth domain.AuthSession, draft *domain.Draft) orders.Result
}

// LinkOpener получает сгенерированную ссылку WhatsApp.
type LinkOpener interface {
	OpenLink(ctx context.Context, orderID, link string) error
}

// Dispatcher исполняет выбранный канал диалога.
type Dispatcher struct {
	sender Sender
	opener LinkOpener
	logger *log.Entry
}

// NewDispatcher создаёт исполнителя. opener может быть nil.
func NewDispatcher(sender Sender, opener LinkOpener, logger *log.Entry) *Dispatcher {
	if logger == nil {
		logger = log.WithField("component", "dispatcher")
	}
	return &Dispatcher{sender: sender, opener: opener, logger: logger}
}

// Dispatch отправляет заказ выбранным каналом. Ошибки возвращаются в Outcome, диалог остаётся открытым.
func (d *Dispatcher) Dispatch(ctx context.Context, auth domain.AuthSession, dialog Dialog, draft *domain.Draft) Outcome {
	out := Outcome{Channel: dialog.Channel, OrderID: dialog.OrderID}
	fail := func(err error) Outcome {
		out.Err = err
		out.Message = domain.UserMessage(err)
		return out
	}

	if dialog.OrderID == "" || dialog.OrderID != draft.OrderID {
		return fail(domain.ErrDispatchNotOpen)
	}
	if !dialog.Channel.Valid() {
		return fail(domain.ErrUnknownChannel)
	}
	if err := draft.ValidateForSave(); err != nil {
		return fail(err)
	}

	switch dialog.Channel {
	case domain.ChannelWhatsApp:
		return d.whatsApp(ctx, dialog, draft, out, fail)
	default:
		if !dialog.Available(domain.ChannelEmail) {
			return fail(domain.ErrChannelUnavailable)
		}
		res := d.sender.Send(ctx, auth, draft)
		if !res.Success {
			out.Err = res.Err
			out.Message = res.Message
			return out
		}
		out.Success = true
		out.Finalized = true
		out.Redirect = OrdersRedirect
		out.Message = res.Message
		return out
	}
}

func (d *Dispatcher) whatsApp(ctx context.Context, dialog Dialog, draft *domain.Draft, out Outcome, fail func(error) Outcome) Outcome {
	link, err := BuildLink(dialog.Supplier.Phone, BuildMessage(*draft))
	if err != nil {
		return fail(err)
	}
	if d.opener != nil {
		if err := d.opener.OpenLink(ctx, dialog.OrderID, link); err != nil {
			d.logger.WithError(err).WithField("order_id", dialog.OrderID).Warn("failed to record whatsapp link")
		}
	}
	out.Success = true
	out.Link = link
	out.Message = MessageWhatsAppOpened
	return out
}
