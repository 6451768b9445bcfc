package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateLineItem: в черновике две позиции с одним товаром.
	ErrDuplicateLineItem = errors.New("draft contains duplicate product")
	// ErrSubtotalMismatch: subtotal позиции не равен unitPrice * quantity.
	ErrSubtotalMismatch = errors.New("line item subtotal does not match unit price * quantity")
	// ErrLineQuantityInvalid: количество позиции меньше 1.
	ErrLineQuantityInvalid = errors.New("line item quantity must be at least 1")
)

// LineItem: одна позиция черновика.
type LineItem struct {
	ProductID string
	// ProductName денормализуется в момент добавления для отображения.
	ProductName string
	Quantity    int
	// UnitPrice фиксируется из каталога при добавлении и больше не перечитывается.
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Notes     string
}

func (i *LineItem) recompute() {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemPatch: частичное обновление позиции. nil-поля не меняются.
type ItemPatch struct {
	Quantity *int
	Notes    *string
}

// Draft: заказ, собираемый пользователем; до первого сохранения существует только в сервисе.
type Draft struct {
	// OrderID пуст до первого успешного create.
	OrderID    string
	Name       string
	SupplierID string
	Items      []LineItem
	Notes      string
	Status     OrderStatus
}

// NewDraft создаёт пустой черновик в статусе PENDING.
func NewDraft() Draft {
	return Draft{Status: OrderStatusPending}
}

// DraftFromOrder восстанавливает черновик для редактирования существующего заказа.
func DraftFromOrder(order Order) Draft {
	d := Draft{
		OrderID:    order.ID,
		Name:       order.Name,
		SupplierID: order.SupplierID,
		Notes:      order.Notes,
		Status:     order.Status,
		Items:      lineItemsFromOrder(order.Items),
	}
	if d.Status == "" {
		d.Status = OrderStatusPending
	}
	return d
}

// DuplicateOrder создаёт новый черновик с позициями и заметками существующего заказа.
// Идентификатор и статус не копируются, имя задаётся заново от поставщика.
func DuplicateOrder(order Order) Draft {
	return Draft{
		SupplierID: order.SupplierID,
		Notes:      order.Notes,
		Status:     OrderStatusPending,
		Items:      lineItemsFromOrder(order.Items),
	}
}

func lineItemsFromOrder(items []OrderItem) []LineItem {
	result := make([]LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ProductID]; dup {
			continue
		}
		seen[item.ProductID] = struct{}{}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		line := LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    qty,
			UnitPrice:   item.UnitPrice,
			Notes:       item.Notes,
		}
		line.recompute()
		result = append(result, line)
	}
	return result
}

func (d *Draft) indexOf(productID string) int {
	for i := range d.Items {
		if d.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Contains проверяет, есть ли товар в черновике.
func (d *Draft) Contains(productID string) bool {
	return d.indexOf(productID) >= 0
}

// Item возвращает позицию по товару.
func (d *Draft) Item(productID string) (LineItem, bool) {
	idx := d.indexOf(productID)
	if idx < 0 {
		return LineItem{}, false
	}
	return d.Items[idx], true
}

// AddItem добавляет товар с quantity=1. Повторное добавление того же товара: no-op (added=false).
func (d *Draft) AddItem(product Product) (bool, error) {
	if d.SupplierID == "" {
		return false, ErrNoSupplierSelected
	}
	if product.ID == "" {
		return false, ErrProductRequired
	}
	if d.Contains(product.ID) {
		return false, nil
	}
	line := LineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    1,
		UnitPrice:   product.Price,
	}
	line.recompute()
	d.Items = append(d.Items, line)
	return true, nil
}

// UpdateItem применяет patch к позиции и пересчитывает subtotal. Отсутствующий товар: no-op.
func (d *Draft) UpdateItem(productID string, patch ItemPatch) (bool, error) {
	if patch.Quantity != nil && *patch.Quantity < 1 {
		return false, ErrInvalidQuantity
	}
	idx := d.indexOf(productID)
	if idx < 0 {
		return false, nil
	}
	item := &d.Items[idx]
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Notes != nil {
		item.Notes = *patch.Notes
	}
	item.recompute()
	return true, nil
}

// IncrementQuantity увеличивает количество на 1.
func (d *Draft) IncrementQuantity(productID string) bool {
	idx := d.indexOf(productID)
	if idx < 0 {
		return false
	}
	qty := d.Items[idx].Quantity + 1
	changed, _ := d.UpdateItem(productID, ItemPatch{Quantity: &qty})
	return changed
}

// DecrementQuantity уменьшает количество на 1, но не ниже 1.
func (d *Draft) DecrementQuantity(productID string) bool {
	idx := d.indexOf(productID)
	if idx < 0 || d.Items[idx].Quantity <= 1 {
		return false
	}
	qty := d.Items[idx].Quantity - 1
	changed, _ := d.UpdateItem(productID, ItemPatch{Quantity: &qty})
	return changed
}

// RemoveItem удаляет позицию; отсутствующий товар: no-op.
func (d *Draft) RemoveItem(productID string) bool {
	idx := d.indexOf(productID)
	if idx < 0 {
		return false
	}
	d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
	return true
}

// Total считает сумму subtotal по текущим позициям при каждом вызове.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// Reset очищает позиции и имя (смена поставщика).
func (d *Draft) Reset() {
	d.Items = nil
	d.Name = ""
}

// DefaultName задаёт имя "Order <supplierName>", если имя пустое.
func (d *Draft) DefaultName(supplierName string) {
	if d.Name == "" && supplierName != "" {
		d.Name = "Order " + supplierName
	}
}

// Persisted сообщает, что заказ уже создан на backend.
func (d *Draft) Persisted() bool {
	return d.OrderID != ""
}

// ValidateForSave проверяет предусловия сохранения и отправки.
func (d *Draft) ValidateForSave() error {
	if d.Status != "" && !d.Status.Editable() {
		return ErrOrderNotEditable
	}
	if d.SupplierID == "" {
		return ErrSupplierRequired
	}
	if len(d.Items) == 0 {
		return ErrItemsRequired
	}
	return nil
}

// ValidateInvariants проверяет инварианты позиций и возвращает список замечаний.
func (d *Draft) ValidateInvariants() []error {
	var errs []error
	seen := make(map[string]struct{}, len(d.Items))
	for _, item := range d.Items {
		if _, dup := seen[item.ProductID]; dup {
			errs = append(errs, ErrDuplicateLineItem)
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity < 1 {
			errs = append(errs, ErrLineQuantityInvalid)
		}
		if !item.Subtotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			errs = append(errs, ErrSubtotalMismatch)
		}
	}
	return errs
}

// Input формирует тело запроса create/update.
func (d *Draft) Input(method NotificationMethod) OrderInput {
	items := make([]OrderItemInput, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		})
	}
	if method == "" {
		method = NotificationEmail
	}
	return OrderInput{
		Name:               d.Name,
		SupplierID:         d.SupplierID,
		Items:              items,
		Notes:              d.Notes,
		NotificationMethod: method,
	}
}

// Clone возвращает глубокую копию черновика.
func (d Draft) Clone() Draft {
	out := d
	if d.Items != nil {
		out.Items = make([]LineItem, len(d.Items))
		copy(out.Items, d.Items)
	}
	return out
}
