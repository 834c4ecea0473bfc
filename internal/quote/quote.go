// Package quote holds the pure pricing logic: request parsing, slab lookup,
// discounting, delivery estimation and reply formatting.
package quote

// Build assembles a Quote from a resolved unit price and the sender's
// customer record. It fails only when the customer's discount is out of range.
func Build(req Request, unit SlabMatch, customer Customer) (Quote, error) {
	final, err := ApplyDiscount(unit.Price, customer.DiscountPercent)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Request:         req,
		CustomerType:    customer.Type,
		UnitPrice:       Round2(unit.Price),
		DiscountPercent: customer.DiscountPercent,
		FinalUnitPrice:  final,
		TotalPrice:      Total(final, req.Quantity),
		DeliveryLabel:   DeliveryTime(req.PaymentMethod, req.Quantity),
	}, nil
}
