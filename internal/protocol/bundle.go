package protocol

import "github.com/openvending/vending/internal/domain"

// BundleToResult converts a wire response bundle into the domain form,
// preserving item order. Items with no value are dropped. No default
// response code is injected; a bundle without one stays ambiguous so the
// flow's terminal handling can substitute its own.
func BundleToResult(bundle *ResponseBundle) *domain.ResultBundle {
	result := &domain.ResultBundle{}
	if bundle == nil {
		return result
	}
	for _, item := range bundle.Items {
		switch {
		case item.B != nil:
			result.Put(item.Key, *item.B)
		case item.I != nil:
			if item.Key == domain.KeyResponseCode {
				result.Put(item.Key, int(*item.I))
				continue
			}
			result.Put(item.Key, *item.I)
		case item.S != nil:
			result.Put(item.Key, *item.S)
		case item.SList != nil:
			result.Put(item.Key, item.SList)
		}
	}
	return result
}
