package abastav1

import "time"

// Деньги передаются десятичной строкой ("12.50"), чтобы не терять точность.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type OpenDraftRequest struct {
	// Mode: new, edit или duplicate.
	Mode          string `json:"mode"`
	SourceOrderID string `json:"source_order_id,omitempty"`
}

// DraftRequest адресует черновик по идентификатору сессии.
type DraftRequest struct {
	DraftID string `json:"draft_id"`
}

type DraftResponse struct {
	Draft *Draft `json:"draft"`
}

type ListDraftsRequest struct{}

type ListDraftsResponse struct {
	Drafts []*Draft `json:"drafts"`
}

type CloseDraftResponse struct{}

type TimelineResponse struct {
	Events []TimelineEvent `json:"events"`
}

type TimelineEvent struct {
	Type     string    `json:"type"`
	OrderID  string    `json:"order_id,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type SelectSupplierRequest struct {
	DraftID    string `json:"draft_id"`
	SupplierID string `json:"supplier_id"`
}

// SupplierChangeResponse: результат выбора или подтверждения смены поставщика.
type SupplierChangeResponse struct {
	Draft *Draft `json:"draft"`
	// Decision: applied, awaiting_confirmation или unchanged.
	Decision string       `json:"decision"`
	Products *ProductPage `json:"products,omitempty"`
	// ProductsError: каталог не загрузился, черновик при этом уже изменён.
	ProductsError string `json:"products_error,omitempty"`
}

type SearchSuppliersRequest struct {
	DraftID string `json:"draft_id"`
	Page    int    `json:"page"`
	Query   string `json:"query,omitempty"`
}

type SupplierPage struct {
	Content       []SupplierEntry `json:"content"`
	Number        int             `json:"number"`
	Size          int             `json:"size"`
	TotalElements int64           `json:"total_elements"`
	TotalPages    int             `json:"total_pages"`
}

type SupplierEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BrowseProductsRequest struct {
	DraftID string `json:"draft_id"`
	// Action: refresh, page, size, search, filter или reset.
	Action string         `json:"action"`
	Page   int            `json:"page,omitempty"`
	Size   int            `json:"size,omitempty"`
	Text   string         `json:"text,omitempty"`
	Filter *ProductFilter `json:"filter,omitempty"`
}

type BrowseProductsResponse struct {
	Products ProductPage  `json:"products"`
	Query    CatalogQuery `json:"query"`
	// Stale: ответ вытеснен более новым запросом, страница не изменилась.
	Stale bool `json:"stale,omitempty"`
}

type ProductPage struct {
	Content       []Product `json:"content"`
	Number        int       `json:"number"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"total_elements"`
	TotalPages    int       `json:"total_pages"`
}

type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Price      string `json:"price"`
	Volume     string `json:"volume,omitempty"`
	Unit       string `json:"unit,omitempty"`
	SupplierID string `json:"supplier_id,omitempty"`
	InDraft    bool   `json:"in_draft"`
}

type ProductFilter struct {
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	MinPrice string `json:"min_price,omitempty"`
	MaxPrice string `json:"max_price,omitempty"`
	Volume   string `json:"volume,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

type CatalogQuery struct {
	SupplierID string         `json:"supplier_id,omitempty"`
	Mode       string         `json:"mode"`
	Text       string         `json:"text,omitempty"`
	Filter     *ProductFilter `json:"filter,omitempty"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
}

// ItemRequest адресует позицию черновика.
type ItemRequest struct {
	DraftID   string `json:"draft_id"`
	ProductID string `json:"product_id"`
}

type AddProductResponse struct {
	Draft *Draft `json:"draft"`
	// Added=false: товар уже был в черновике.
	Added bool `json:"added"`
}

type UpdateItemRequest struct {
	DraftID   string  `json:"draft_id"`
	ProductID string  `json:"product_id"`
	Quantity  *int    `json:"quantity,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type SetNotesRequest struct {
	DraftID string `json:"draft_id"`
	Notes   string `json:"notes"`
}

type SetNameRequest struct {
	DraftID string `json:"draft_id"`
	Name    string `json:"name"`
}

type SaveDraftResponse struct {
	Draft   *Draft `json:"draft"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Created bool   `json:"created,omitempty"`
}

type OpenDispatchResponse struct {
	Draft   *Draft `json:"draft"`
	Opened  bool   `json:"opened"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

type SelectChannelRequest struct {
	DraftID string `json:"draft_id"`
	Channel string `json:"channel"`
}

type SendOrderResponse struct {
	Draft     *Draft `json:"draft"`
	Success   bool   `json:"success"`
	Channel   string `json:"channel,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Finalized bool   `json:"finalized,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
	Link      string `json:"link,omitempty"`
	Message   string `json:"message,omitempty"`
}

type WhatsAppLinkResponse struct {
	Link string `json:"link"`
}

// Draft: снимок черновика вместе с состоянием экрана.
type Draft struct {
	ID            string           `json:"id"`
	Mode          string           `json:"mode"`
	SourceOrderID string           `json:"source_order_id,omitempty"`
	OrderID       string           `json:"order_id,omitempty"`
	Name          string           `json:"name"`
	SupplierID    string           `json:"supplier_id,omitempty"`
	Status        string           `json:"status"`
	Notes         string           `json:"notes,omitempty"`
	Items         []LineItem       `json:"items"`
	Total         string           `json:"total"`
	Guard         Guard            `json:"guard"`
	Supplier      *SupplierProfile `json:"supplier,omitempty"`
	Dispatch      *Dispatch        `json:"dispatch,omitempty"`
	Catalog       CatalogQuery     `json:"catalog"`
	Version       int64            `json:"version"`
	Finalized     bool             `json:"finalized,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type LineItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
	Notes       string `json:"notes,omitempty"`
}

type Guard struct {
	State     string `json:"state"`
	Candidate string `json:"candidate,omitempty"`
}

type SupplierProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Dispatch struct {
	Open    bool   `json:"open"`
	OrderID string `json:"order_id,omitempty"`
	Channel string `json:"channel,omitempty"`
	// Channels: доступность каналов для текущего поставщика.
	Channels map[string]bool `json:"channels,omitempty"`
}
