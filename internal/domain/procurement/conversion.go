package procurement

import "time"

// ConversionRequest names the supplier and delivery terms of the order to create
type ConversionRequest struct {
	Supplier             Supplier
	ExpectedDeliveryDate *time.Time
	DeliveryAddress      string
}

// ConvertRequisition turns an approved requisition into a Draft purchase order.
// Each requisition line becomes an order line with its estimated price as the firm
// price. The requisition is marked Converted; callers must persist both documents
// in the same transaction.
func ConvertRequisition(req *PurchaseRequisition, orderNumber string, in ConversionRequest) (*PurchaseOrder, error) {
	if err := req.CanConvert(); err != nil {
		return nil, err
	}

	items := make([]PurchaseOrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		item, err := NewPurchaseOrderItem(line.ProductID, line.Description, line.Unit, line.Quantity, line.EstimatedUnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, err := NewPurchaseOrder(req.TenantID, orderNumber, in.Supplier, items)
	if err != nil {
		return nil, err
	}
	requisitionID := req.ID
	order.RequisitionID = &requisitionID
	order.ExpectedDeliveryDate = in.ExpectedDeliveryDate
	order.DeliveryAddress = in.DeliveryAddress
	if req.CreatedBy != nil {
		order.SetCreatedBy(*req.CreatedBy)
	}
	order.ClearDomainEvents()
	order.AddDomainEvent(NewPurchaseOrderEvent(EventTypePurchaseOrderCreated, order))

	if err := req.MarkConverted(order.ID, order.OrderNumber); err != nil {
		return nil, err
	}
	return order, nil
}
