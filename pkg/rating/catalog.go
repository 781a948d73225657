package rating

import "sort"

// BoxCatalog selects boxes and computes billable weights against a
// configured box library.
type BoxCatalog struct {
	boxes      []Box
	dimDivisor float64
}

// NewBoxCatalog creates a catalog over the configuration's box library.
func NewBoxCatalog(cfg *Configuration) *BoxCatalog {
	return &BoxCatalog{
		boxes:      cfg.Boxes,
		dimDivisor: cfg.EffectiveDimDivisor(),
	}
}

// DimensionalWeight returns (L*W*H)/divisor rounded to 2 decimals.
func (bc *BoxCatalog) DimensionalWeight(box Box) float64 {
	return round2(box.OuterDims.Volume() / bc.dimDivisor)
}

// BillableWeight returns the greater of actual weight and the box's
// dimensional weight. With no box, actual weight passes through unchanged.
func (bc *BoxCatalog) BillableWeight(actualWeight float64, box *Box) float64 {
	if box == nil {
		return actualWeight
	}
	if dim := bc.DimensionalWeight(*box); dim > actualWeight {
		return dim
	}
	return actualWeight
}

// BoxByID returns an active box by id.
func (bc *BoxCatalog) BoxByID(id string) (*Box, bool) {
	for i := range bc.boxes {
		if bc.boxes[i].ID == id && bc.boxes[i].Active {
			return &bc.boxes[i], true
		}
	}
	return nil, false
}

// SelectBoxForItems picks a box for an item group.
//
// Tube items take the first active tube, or no box at all when the catalog
// has none (the caller then bills raw weight). Otherwise the smallest active
// non-tube box that holds the group's weight and volume wins, ties broken by
// catalog order. When nothing fits, the largest box is returned best-effort
// with overCapacity set so the caller can surcharge instead of blocking
// checkout.
func (bc *BoxCatalog) SelectBoxForItems(items []CartItem) (box *Box, overCapacity bool) {
	for _, item := range items {
		if item.RequiresTube {
			return bc.firstActiveTube(), false
		}
	}

	if preferred := bc.unanimousPreferredBox(items); preferred != nil {
		return preferred, false
	}

	var totalWeight, totalVolume float64
	for _, item := range items {
		totalWeight += item.LineWeight()
		totalVolume += item.LineVolume()
	}

	candidates := make([]*Box, 0, len(bc.boxes))
	for i := range bc.boxes {
		if bc.boxes[i].Active && bc.boxes[i].Type != BoxTube {
			candidates = append(candidates, &bc.boxes[i])
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].OuterDims.Volume() < candidates[j].OuterDims.Volume()
	})

	for _, b := range candidates {
		if b.MaxWeight < totalWeight {
			continue
		}
		if totalVolume > 0 && b.OuterDims.Volume() < totalVolume {
			continue
		}
		return b, false
	}

	// Nothing fits: best-effort largest box, never block checkout.
	return candidates[len(candidates)-1], true
}

func (bc *BoxCatalog) firstActiveTube() *Box {
	for i := range bc.boxes {
		if bc.boxes[i].Active && bc.boxes[i].Type == BoxTube {
			return &bc.boxes[i]
		}
	}
	return nil
}

// unanimousPreferredBox honors a product-pinned box when every item in the
// group names the same active box and it holds the group.
func (bc *BoxCatalog) unanimousPreferredBox(items []CartItem) *Box {
	if len(items) == 0 {
		return nil
	}
	id := items[0].PreferredBoxID
	if id == "" {
		return nil
	}
	for _, item := range items[1:] {
		if item.PreferredBoxID != id {
			return nil
		}
	}
	box, ok := bc.BoxByID(id)
	if !ok || box.Type == BoxTube {
		return nil
	}
	var totalWeight, totalVolume float64
	for _, item := range items {
		totalWeight += item.LineWeight()
		totalVolume += item.LineVolume()
	}
	if box.MaxWeight < totalWeight {
		return nil
	}
	if totalVolume > 0 && box.OuterDims.Volume() < totalVolume {
		return nil
	}
	return box
}
