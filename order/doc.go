// Package order provides the Klarna Checkout aggregated order resource.
//
// An Order keeps its data as a plain JSON object and delegates every
// exchange to a connector:
//
//	o, err := order.New(conn, order.WithBaseURI(order.TestBaseURI))
//	if err != nil {
//		return err
//	}
//	if err := o.Create(ctx, map[string]any{"purchase_country": "SE"}); err != nil {
//		return err
//	}
//	if err := o.Fetch(ctx); err != nil {
//		return err
//	}
//	status, _ := o.Get("status")
package order
