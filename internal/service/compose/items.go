package compose

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// AddProduct добавляет товар в черновик с количеством 1. Товар берётся с текущей страницы
// каталога, иначе запрашивается у backend. Повторное добавление возвращает added=false.
func (s *Service) AddProduct(ctx context.Context, auth domain.AuthSession, id, productID string) (View, bool, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return View{}, false, domain.ErrProductRequired
	}
	sess, rt, err := s.snapshot(auth, id)
	if err != nil {
		return View{}, false, err
	}
	if sess.Draft.SupplierID == "" {
		return View{}, false, domain.ErrNoSupplierSelected
	}
	if sess.Draft.Contains(productID) {
		return newView(sess), false, nil
	}

	product, ok := rt.browser.Lookup(productID)
	if !ok {
		product, err = s.deps.Catalog.GetProduct(ctx, auth.Token, productID)
		if err != nil {
			return View{}, false, err
		}
	}
	if product.ID == "" {
		product.ID = productID
	}

	added := false
	saved, err := s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		if product.SupplierID != "" && product.SupplierID != sess.Draft.SupplierID {
			return false, domain.NewValidationError("product belongs to another supplier")
		}
		ok, err := sess.Draft.AddItem(product)
		if err != nil || !ok {
			return false, err
		}
		added = true
		closeDispatch(sess)
		return true, nil
	})
	if err != nil {
		return View{}, false, err
	}
	if added {
		s.metrics.RecordItemAdded()
	}
	return newView(saved), added, nil
}

// UpdateItem меняет количество и/или заметку позиции.
func (s *Service) UpdateItem(_ context.Context, auth domain.AuthSession, id, productID string, patch domain.ItemPatch) (View, error) {
	return s.editDraft(auth, id, func(d *domain.Draft) (bool, error) {
		return d.UpdateItem(productID, patch)
	})
}

// IncrementItem увеличивает количество позиции на 1.
func (s *Service) IncrementItem(_ context.Context, auth domain.AuthSession, id, productID string) (View, error) {
	return s.editDraft(auth, id, func(d *domain.Draft) (bool, error) {
		return d.IncrementQuantity(productID), nil
	})
}

// DecrementItem уменьшает количество позиции на 1, не ниже 1.
func (s *Service) DecrementItem(_ context.Context, auth domain.AuthSession, id, productID string) (View, error) {
	return s.editDraft(auth, id, func(d *domain.Draft) (bool, error) {
		return d.DecrementQuantity(productID), nil
	})
}

// RemoveItem удаляет позицию.
func (s *Service) RemoveItem(_ context.Context, auth domain.AuthSession, id, productID string) (View, error) {
	return s.editDraft(auth, id, func(d *domain.Draft) (bool, error) {
		return d.RemoveItem(productID), nil
	})
}

// SetNotes задаёт заметку к заказу.
func (s *Service) SetNotes(_ context.Context, auth domain.AuthSession, id, notes string) (View, error) {
	return s.editDraft(auth, id, func(d *domain.Draft) (bool, error) {
		if d.Notes == notes {
			return false, nil
		}
		d.Notes = notes
		return true, nil
	})
}

// SetName задаёт имя заказа. Пустое имя заменяется именем по умолчанию поставщика.
func (s *Service) SetName(_ context.Context, auth domain.AuthSession, id, name string) (View, error) {
	name = strings.TrimSpace(name)
	saved, err := s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		before := sess.Draft.Name
		sess.Draft.Name = name
		if name == "" && sess.Supplier != nil {
			sess.Draft.DefaultName(sess.Supplier.Name)
		}
		if sess.Draft.Name == before {
			return false, nil
		}
		closeDispatch(sess)
		return true, nil
	})
	if err != nil {
		return View{}, err
	}
	return newView(saved), nil
}

func (s *Service) editDraft(auth domain.AuthSession, id string, edit func(d *domain.Draft) (bool, error)) (View, error) {
	saved, err := s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		changed, err := edit(&sess.Draft)
		if err != nil || !changed {
			return false, err
		}
		closeDispatch(sess)
		return true, nil
	})
	if err != nil {
		return View{}, err
	}
	return newView(saved), nil
}

// closeDispatch закрывает диалог отправки: после изменения черновик нужно сохранить заново.
func closeDispatch(sess *domain.ComposeSession) {
	sess.Dispatch.Open = false
}
