package grpcsvc

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/service/compose"
	abastav1 "github.com/vladislavdragonenkov/abasta/proto/abasta/v1"
)

// DraftMessage переводит снимок черновика в wire-формат; используется и HTTP-поверхностью.
func DraftMessage(view compose.View) *abastav1.Draft {
	return toWireDraft(view)
}

func toWireDraft(view compose.View) *abastav1.Draft {
	sess := view.Session
	items := make([]abastav1.LineItem, 0, len(sess.Draft.Items))
	for _, item := range sess.Draft.Items {
		items = append(items, abastav1.LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Subtotal:    item.Subtotal.StringFixed(2),
			Notes:       item.Notes,
		})
	}

	out := &abastav1.Draft{
		ID:            sess.ID,
		Mode:          string(sess.Mode),
		SourceOrderID: sess.SourceOrderID,
		OrderID:       sess.Draft.OrderID,
		Name:          sess.Draft.Name,
		SupplierID:    sess.Draft.SupplierID,
		Status:        string(sess.Draft.Status),
		Notes:         sess.Draft.Notes,
		Items:         items,
		Total:         view.Total.StringFixed(2),
		Guard:         abastav1.Guard{State: string(sess.Guard.State), Candidate: sess.Guard.Candidate},
		Catalog:       toWireCatalogQuery(sess.Catalog),
		Version:       sess.Version,
		Finalized:     sess.Finalized,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
	if out.Guard.State == "" {
		out.Guard.State = string(domain.GuardIdle)
	}
	if sess.Supplier != nil {
		out.Supplier = &abastav1.SupplierProfile{
			ID:    sess.Supplier.ID,
			Name:  sess.Supplier.Name,
			Email: sess.Supplier.Email,
			Phone: sess.Supplier.Phone,
		}
	}
	if sess.Dispatch.Open {
		dispatch := &abastav1.Dispatch{
			Open:    true,
			OrderID: sess.Dispatch.OrderID,
			Channel: string(sess.Dispatch.Channel),
		}
		if len(view.Channels) > 0 {
			dispatch.Channels = make(map[string]bool, len(view.Channels))
			for channel, enabled := range view.Channels {
				dispatch.Channels[string(channel)] = enabled
			}
		}
		out.Dispatch = dispatch
	}
	return out
}

func toWireDrafts(views []compose.View) []*abastav1.Draft {
	out := make([]*abastav1.Draft, 0, len(views))
	for _, view := range views {
		out = append(out, toWireDraft(view))
	}
	return out
}

func toWireProductPage(page domain.Page[domain.Product]) abastav1.ProductPage {
	content := make([]abastav1.Product, 0, len(page.Content))
	for _, p := range page.Content {
		content = append(content, abastav1.Product{
			ID:         p.ID,
			Name:       p.Name,
			Category:   p.Category,
			Price:      p.Price.StringFixed(2),
			Volume:     p.Volume,
			Unit:       p.Unit,
			SupplierID: p.SupplierID,
			InDraft:    p.InDraft,
		})
	}
	return abastav1.ProductPage{
		Content:       content,
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}
}

func toWireSupplierPage(page domain.Page[domain.Supplier]) *abastav1.SupplierPage {
	content := make([]abastav1.SupplierEntry, 0, len(page.Content))
	for _, s := range page.Content {
		content = append(content, abastav1.SupplierEntry{ID: s.ID, Name: s.Name})
	}
	return &abastav1.SupplierPage{
		Content:       content,
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}
}

func toWireCatalogQuery(q domain.CatalogQuery) abastav1.CatalogQuery {
	out := abastav1.CatalogQuery{
		SupplierID: q.SupplierID,
		Mode:       string(q.Mode),
		Text:       q.Text,
		Page:       q.Page,
		Size:       q.Size,
	}
	if out.Mode == "" {
		out.Mode = string(domain.CatalogListing)
	}
	if !q.Filter.Empty() {
		f := &abastav1.ProductFilter{
			Name:     q.Filter.Name,
			Category: q.Filter.Category,
			Volume:   q.Filter.Volume,
			Unit:     q.Filter.Unit,
		}
		if q.Filter.MinPrice != nil {
			f.MinPrice = q.Filter.MinPrice.String()
		}
		if q.Filter.MaxPrice != nil {
			f.MaxPrice = q.Filter.MaxPrice.String()
		}
		out.Filter = f
	}
	return out
}

func fromWireFilter(in *abastav1.ProductFilter) (domain.ProductFilter, error) {
	if in == nil {
		return domain.ProductFilter{}, nil
	}
	out := domain.ProductFilter{
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		Volume:   strings.TrimSpace(in.Volume),
		Unit:     strings.TrimSpace(in.Unit),
	}
	var err error
	if out.MinPrice, err = parsePrice("filter.min_price", in.MinPrice); err != nil {
		return domain.ProductFilter{}, err
	}
	if out.MaxPrice, err = parsePrice("filter.max_price", in.MaxPrice); err != nil {
		return domain.ProductFilter{}, err
	}
	return out, nil
}

func parsePrice(field, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a decimal number", field)
	}
	if value.IsNegative() {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be >= 0", field)
	}
	return &value, nil
}

func toWireTimeline(events []domain.TimelineEvent) []abastav1.TimelineEvent {
	out := make([]abastav1.TimelineEvent, 0, len(events))
	for _, event := range events {
		out = append(out, abastav1.TimelineEvent{
			Type:     event.Type,
			OrderID:  event.OrderID,
			Reason:   event.Reason,
			Occurred: event.Occurred.UTC(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Occurred.Before(out[j].Occurred)
	})
	return out
}
