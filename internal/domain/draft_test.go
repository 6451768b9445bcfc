package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

func product(id, name string, price int64) domain.Product {
	return domain.Product{ID: id, Name: name, Price: decimal.NewFromInt(price), SupplierID: "s1"}
}

func draftWithSupplier() domain.Draft {
	d := domain.NewDraft()
	d.SupplierID = "s1"
	return d
}

func assertSubtotals(t *testing.T, d domain.Draft) {
	t.Helper()
	if errs := d.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("draft invariants violated: %v", errs)
	}
}

func TestDraftAddItem_NoSupplier(t *testing.T) {
	d := domain.NewDraft()
	added, err := d.AddItem(product("p1", "Milk", 10))
	if err != domain.ErrNoSupplierSelected {
		t.Fatalf("expected ErrNoSupplierSelected, got %v", err)
	}
	if added || len(d.Items) != 0 {
		t.Fatalf("item must not be added without supplier")
	}
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error")
	}
}

func TestDraftAddItem_NoDuplicates(t *testing.T) {
	d := draftWithSupplier()
	p := product("p1", "Milk", 10)

	added, err := d.AddItem(p)
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	qty := 4
	if _, err := d.UpdateItem("p1", domain.ItemPatch{Quantity: &qty}); err != nil {
		t.Fatalf("update: %v", err)
	}
	before := d.Clone()

	for i := 0; i < 3; i++ {
		added, err = d.AddItem(p)
		if err != nil || added {
			t.Fatalf("repeated add must be a silent no-op: added=%v err=%v", added, err)
		}
	}

	if len(d.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(d.Items))
	}
	if d.Items[0] != before.Items[0] {
		t.Fatalf("repeated add changed item: %+v vs %+v", d.Items[0], before.Items[0])
	}
}

func TestDraftAddItem_InitialLine(t *testing.T) {
	d := draftWithSupplier()
	if _, err := d.AddItem(product("p1", "Milk", 7)); err != nil {
		t.Fatalf("add: %v", err)
	}
	item := d.Items[0]
	if item.Quantity != 1 || !item.UnitPrice.Equal(decimal.NewFromInt(7)) || !item.Subtotal.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected line: %+v", item)
	}
	if item.ProductName != "Milk" {
		t.Fatalf("expected denormalized product name, got %q", item.ProductName)
	}
}

func TestDraftSubtotalAndTotalConsistency(t *testing.T) {
	d := draftWithSupplier()
	price, _ := decimal.NewFromString("2.35")
	_, _ = d.AddItem(domain.Product{ID: "p1", Name: "Bread", Price: price})
	_, _ = d.AddItem(product("p2", "Milk", 10))

	steps := []func(){
		func() { d.IncrementQuantity("p1") },
		func() { d.IncrementQuantity("p1") },
		func() { d.DecrementQuantity("p2") },
		func() {
			qty := 7
			_, _ = d.UpdateItem("p2", domain.ItemPatch{Quantity: &qty})
		},
		func() {
			notes := "cold"
			_, _ = d.UpdateItem("p2", domain.ItemPatch{Notes: &notes})
		},
		func() { d.RemoveItem("p1") },
	}

	for i, step := range steps {
		step()
		assertSubtotals(t, d)

		sum := decimal.Zero
		for _, item := range d.Items {
			sum = sum.Add(item.Subtotal)
		}
		if !d.Total().Equal(sum) {
			t.Fatalf("step %d: total %s != sum %s", i, d.Total(), sum)
		}
	}

	if len(d.Items) != 1 || d.Items[0].Quantity != 7 || d.Items[0].Notes != "cold" {
		t.Fatalf("unexpected final draft: %+v", d.Items)
	}
	if !d.Total().Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected total 70, got %s", d.Total())
	}
}

func TestDraftDecrementFloor(t *testing.T) {
	d := draftWithSupplier()
	_, _ = d.AddItem(product("p1", "Milk", 10))

	if d.DecrementQuantity("p1") {
		t.Fatalf("decrement at quantity 1 must be a no-op")
	}
	if d.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", d.Items[0].Quantity)
	}
}

func TestDraftUpdateItem(t *testing.T) {
	d := draftWithSupplier()
	_, _ = d.AddItem(product("p1", "Milk", 10))

	zero := 0
	if _, err := d.UpdateItem("p1", domain.ItemPatch{Quantity: &zero}); err != domain.ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	qty := 3
	changed, err := d.UpdateItem("missing", domain.ItemPatch{Quantity: &qty})
	if err != nil || changed {
		t.Fatalf("unknown product must be a no-op: changed=%v err=%v", changed, err)
	}
	if d.Items[0].Quantity != 1 {
		t.Fatalf("quantity changed by rejected patch")
	}
}

func TestDraftRemoveItemAbsent(t *testing.T) {
	d := draftWithSupplier()
	_, _ = d.AddItem(product("p1", "Milk", 10))
	if d.RemoveItem("p2") {
		t.Fatalf("remove of absent product must be a no-op")
	}
	if len(d.Items) != 1 {
		t.Fatalf("items changed")
	}
}

func TestDraftValidateForSave(t *testing.T) {
	cases := []struct {
		name string
		mut  func(d *domain.Draft)
		want error
	}{
		{name: "no supplier", mut: func(d *domain.Draft) { d.SupplierID = "" }, want: domain.ErrSupplierRequired},
		{name: "no items", mut: func(d *domain.Draft) { d.Items = nil }, want: domain.ErrItemsRequired},
		{name: "not pending", mut: func(d *domain.Draft) { d.Status = domain.OrderStatusSent }, want: domain.ErrOrderNotEditable},
		{name: "ok", mut: func(*domain.Draft) {}, want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := draftWithSupplier()
			_, _ = d.AddItem(product("p1", "Milk", 10))
			tc.mut(&d)
			if err := d.ValidateForSave(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDraftDefaultName(t *testing.T) {
	d := draftWithSupplier()
	d.DefaultName("Dairy Co")
	if d.Name != "Order Dairy Co" {
		t.Fatalf("unexpected default name %q", d.Name)
	}
	d.DefaultName("Other")
	if d.Name != "Order Dairy Co" {
		t.Fatalf("non-empty name must be kept, got %q", d.Name)
	}
}

func TestDraftFromOrderAndDuplicate(t *testing.T) {
	order := domain.Order{
		ID:         "o1",
		Name:       "Weekly",
		SupplierID: "s1",
		Status:     domain.OrderStatusPending,
		Notes:      "back door",
		Items: []domain.OrderItem{
			{ProductID: "p1", ProductName: "Milk", Quantity: 2, UnitPrice: decimal.NewFromInt(3), Subtotal: decimal.NewFromInt(6)},
			{ProductID: "p1", ProductName: "Milk", Quantity: 5, UnitPrice: decimal.NewFromInt(3)},
		},
	}

	edit := domain.DraftFromOrder(order)
	if edit.OrderID != "o1" || edit.Name != "Weekly" || edit.Status != domain.OrderStatusPending {
		t.Fatalf("edit draft must keep identity: %+v", edit)
	}
	if len(edit.Items) != 1 {
		t.Fatalf("expected duplicates collapsed, got %d", len(edit.Items))
	}
	assertSubtotals(t, edit)

	dup := domain.DuplicateOrder(order)
	if dup.OrderID != "" || dup.Name != "" || dup.Status != domain.OrderStatusPending {
		t.Fatalf("duplicate must not inherit identity: %+v", dup)
	}
	if dup.Notes != "back door" || len(dup.Items) != 1 {
		t.Fatalf("duplicate must copy items and notes: %+v", dup)
	}
}

func TestDraftInput(t *testing.T) {
	d := draftWithSupplier()
	d.Name = "Order S1"
	d.Notes = "asap"
	_, _ = d.AddItem(product("p1", "Milk", 10))
	notes := "skimmed"
	_, _ = d.UpdateItem("p1", domain.ItemPatch{Notes: &notes})

	in := d.Input("")
	if in.NotificationMethod != domain.NotificationEmail {
		t.Fatalf("expected EMAIL by default, got %s", in.NotificationMethod)
	}
	if in.SupplierID != "s1" || in.Name != "Order S1" || in.Notes != "asap" {
		t.Fatalf("unexpected input header: %+v", in)
	}
	if len(in.Items) != 1 || in.Items[0].ProductID != "p1" || in.Items[0].Quantity != 1 || in.Items[0].Notes != "skimmed" {
		t.Fatalf("unexpected input items: %+v", in.Items)
	}
}

func TestDraftCloneIsDeep(t *testing.T) {
	d := draftWithSupplier()
	_, _ = d.AddItem(product("p1", "Milk", 10))
	c := d.Clone()
	c.IncrementQuantity("p1")
	if d.Items[0].Quantity != 1 {
		t.Fatalf("clone shares items with original")
	}
}
